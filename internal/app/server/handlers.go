package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/codeduel-vn/codeduel/internal/app/duel"
	"github.com/codeduel-vn/codeduel/internal/codeforces"
	"github.com/codeduel-vn/codeduel/internal/domains/entities"
	"github.com/codeduel-vn/codeduel/pkg/logging"
	"github.com/codeduel-vn/codeduel/pkg/utils"
	"go.uber.org/zap"
)

type errorResponse struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// Handler for login-or-register by judge handle. Unknown handles are
// validated against the judge's profile API before an account is created.
func (s *server) handleEnter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Handle string `json:"handle"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Handle == "" {
		respondError(w, http.StatusBadRequest, "handle required")
		return
	}

	ctx := r.Context()
	user, err := s.storageClient.GetUserByHandle(ctx, req.Handle)
	if errors.Is(err, duel.ErrUserNotFound) {
		info, err := s.judgeClient.GetUserInfo(ctx, req.Handle)
		if err != nil {
			if errors.Is(err, codeforces.ErrHandleNotFound) {
				respondError(w, http.StatusNotFound, "codeforces handle not found")
				return
			}
			respondError(w, http.StatusBadGateway, "codeforces api error")
			return
		}
		user = entities.User{
			Id:               utils.GenerateUUID(),
			Handle:           info.Handle,
			Username:         info.Handle,
			CodeforcesRating: info.Rating,
			DuelRating:       1200,
			CreatedAt:        time.Now(),
		}
		if err := s.storageClient.PutUser(ctx, user); err != nil {
			logging.Error("failed to put user", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to create user")
			return
		}
		logging.Info("user registered",
			zap.String("user_id", user.Id),
			zap.String("handle", user.Handle),
		)
	} else if err != nil {
		logging.Error("failed to look up user", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to look up user")
		return
	}

	token, err := s.issueToken(user.Id)
	if err != nil {
		logging.Error("failed to issue token", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	respondJson(w, http.StatusOK, map[string]any{
		"user":  user,
		"token": token,
	})
}

// Handler for the explicit two-step path: create a match and wait for an
// opponent to join by id.
func (s *server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	userId, err := s.auth(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		MinRating int `json:"minRating"`
		MaxRating int `json:"maxRating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	// An omitted range means any problem; the catalog handles the zero range.
	match, err := s.duelService.CreateMatch(r.Context(), userId, req.MinRating, req.MaxRating)
	if err != nil {
		respondDuelError(w, err)
		return
	}
	respondJson(w, http.StatusCreated, match)
}

func (s *server) handleJoinMatch(w http.ResponseWriter, r *http.Request) {
	userId, err := s.auth(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		MatchId string `json:"matchId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MatchId == "" {
		respondError(w, http.StatusBadRequest, "matchId required")
		return
	}

	match, err := s.duelService.JoinMatch(r.Context(), req.MatchId, userId)
	if err != nil {
		respondDuelError(w, err)
		return
	}
	respondJson(w, http.StatusOK, match)
}

func (s *server) handleAbortMatch(w http.ResponseWriter, r *http.Request) {
	userId, err := s.auth(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		MatchId string `json:"matchId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MatchId == "" {
		respondError(w, http.StatusBadRequest, "matchId required")
		return
	}

	if err := s.duelService.AbortMatch(r.Context(), req.MatchId, userId); err != nil {
		respondDuelError(w, err)
		return
	}
	respondJson(w, http.StatusOK, map[string]string{"status": "aborted"})
}

func (s *server) handleVerifySubmission(w http.ResponseWriter, r *http.Request) {
	userId, err := s.auth(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		MatchId string `json:"matchId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MatchId == "" {
		respondError(w, http.StatusBadRequest, "matchId required")
		return
	}

	result, err := s.duelService.CheckSubmission(r.Context(), req.MatchId, userId)
	if err != nil {
		respondDuelError(w, err)
		return
	}
	respondJson(w, http.StatusOK, result)
}

// Handler for incoming websocket events.
func (s *server) handleSocketMessage(ctx context.Context, conn *connection, userId string, p payload) {
	switch p.Type {
	case "join_queue":
		user, err := s.storageClient.GetUser(ctx, userId)
		if err != nil {
			conn.writeJson(errorResponse{Type: "error", Error: ErrStatusUnknownUser})
			return
		}
		entrant := duel.Entrant{
			ConnId:   conn.id,
			UserId:   user.Id,
			Username: user.Username,
			Rating:   user.DuelRating,
		}
		err = s.duelService.Enqueue(ctx, entrant, s.config.MinProblemRating, s.config.MaxProblemRating)
		if err != nil {
			if errors.Is(err, duel.ErrAlreadyQueued) {
				conn.writeJson(errorResponse{Type: "error", Error: ErrStatusAlreadyQueued})
				return
			}
			logging.Error("matchmaking failed",
				zap.String("user_id", userId),
				zap.Error(err),
			)
			conn.writeJson(errorResponse{Type: "error", Error: ErrStatusMatchmaking})
		}
	case "join_room":
		roomToken := p.Data["roomToken"]
		if roomToken == "" {
			conn.writeJson(errorResponse{Type: "error", Error: ErrStatusInvalidPayload})
			return
		}
		if err := s.hub.joinRoom(conn.id, roomToken); err != nil {
			logging.Error("failed to join room", zap.Error(err))
			return
		}
		logging.Info("connection joined room",
			zap.String("conn_id", conn.id),
			zap.String("room_token", roomToken),
		)
	default:
		logging.Info("invalid payload type:", zap.String("type", p.Type))
		conn.writeJson(errorResponse{Type: "error", Error: ErrStatusInvalidEvent})
	}
}

// Handler for when a connection closes: a queued player leaves the queue,
// mid-match disconnects leave the match ACTIVE until finalized.
func (s *server) handleDisconnect(conn *connection) {
	s.duelService.RemoveIfWaiting(conn.id)
	s.hub.unregister(conn.id)
}

func respondDuelError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, duel.ErrMatchNotFound),
		errors.Is(err, duel.ErrUserNotFound),
		errors.Is(err, duel.ErrNoProblemAvailable):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, duel.ErrMatchFull),
		errors.Is(err, duel.ErrSelfJoin),
		errors.Is(err, duel.ErrMatchFinished):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, duel.ErrUpstream):
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		logging.Error("internal error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func respondJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJson(w, status, map[string]string{"error": message})
}
