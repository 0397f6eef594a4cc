package duel

import (
	"context"
	"errors"
	"fmt"

	"github.com/codeduel-vn/codeduel/internal/domains/entities"
	"github.com/codeduel-vn/codeduel/pkg/logging"
	"go.uber.org/zap"
)

// CheckResult is the outcome of one verification attempt.
type CheckResult struct {
	Status   entities.MatchStatus `json:"status"`
	WinnerId string               `json:"winnerId,omitempty"`
}

// CheckSubmission polls the judge for the calling user's recent submissions
// and finalizes the match on the first one that matches the assigned problem,
// carries an accepted verdict and was submitted strictly after the match
// started. It is idempotent and safe under concurrent polling by either
// participant: an already finished match short-circuits before any judge
// call, and the store's conditional update lets exactly one of two racing
// finalize attempts win.
func (s *Service) CheckSubmission(ctx context.Context, matchId, userId string) (CheckResult, error) {
	match, err := s.matches.GetMatch(ctx, matchId)
	if err != nil {
		return CheckResult{}, err
	}
	if match.Status == entities.MatchFinished {
		return CheckResult{Status: match.Status, WinnerId: match.WinnerId}, nil
	}
	if match.Player1Id != userId && match.Player2Id != userId {
		return CheckResult{}, ErrMatchNotFound
	}

	user, err := s.users.GetUser(ctx, userId)
	if err != nil {
		return CheckResult{}, err
	}

	// A match that never became ACTIVE has no start cutoff and cannot be won.
	if match.StartedAt == nil {
		return CheckResult{Status: match.Status}, nil
	}

	submissions, err := s.judge.ListRecentSubmissions(ctx, user.Handle, recentSubmissionCount)
	if err != nil {
		return CheckResult{}, fmt.Errorf("%w: %s", ErrUpstream, err)
	}

	// First matching entry in the judge's return order wins. The judge is
	// assumed to report at most one accepted verdict per (user, problem).
	for _, sub := range submissions {
		if !match.Problem.Same(sub.ContestId, sub.Index) {
			continue
		}
		if sub.Verdict != VerdictAccepted {
			continue
		}
		if !sub.SubmittedAt.After(*match.StartedAt) {
			continue
		}
		return s.finalize(ctx, match, userId)
	}
	return CheckResult{Status: match.Status}, nil
}

func (s *Service) finalize(ctx context.Context, match entities.Match, winnerId string) (CheckResult, error) {
	endedAt := s.now()
	if err := s.matches.FinalizeMatch(ctx, match.Id, winnerId, endedAt); err != nil {
		if errors.Is(err, ErrMatchFinished) {
			// Lost the race against a concurrent check. The stored result is
			// authoritative; counters were already adjusted by the winner.
			final, err := s.matches.GetMatch(ctx, match.Id)
			if err != nil {
				return CheckResult{}, err
			}
			return CheckResult{Status: final.Status, WinnerId: final.WinnerId}, nil
		}
		return CheckResult{}, err
	}

	if err := s.users.IncrementWins(ctx, winnerId); err != nil {
		logging.Error("couldn't increment wins",
			zap.String("user_id", winnerId),
			zap.Error(err),
		)
	}
	loserId := match.Player1Id
	if loserId == winnerId {
		loserId = match.Player2Id
	}
	if loserId != "" {
		if err := s.users.IncrementLosses(ctx, loserId); err != nil {
			logging.Error("couldn't increment losses",
				zap.String("user_id", loserId),
				zap.Error(err),
			)
		}
	}

	s.notifier.BroadcastToRoom(match.RoomToken, EventGameOver, GameOverPayload{WinnerId: winnerId})
	logging.Info("match finished",
		zap.String("match_id", match.Id),
		zap.String("winner_id", winnerId),
	)
	return CheckResult{Status: entities.MatchFinished, WinnerId: winnerId}, nil
}
