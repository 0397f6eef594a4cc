package duel

import (
	"context"
	"time"

	"github.com/codeduel-vn/codeduel/internal/domains/entities"
	"github.com/codeduel-vn/codeduel/pkg/logging"
	"github.com/codeduel-vn/codeduel/pkg/utils"
	"go.uber.org/zap"
)

const (
	EventMatchFound   = "match_found"
	EventGameOver     = "game_over"
	EventMatchAborted = "match_aborted"

	// How many recent submissions to fetch from the judge per check. Older
	// accepted solutions are irrelevant because of the start-time cutoff.
	recentSubmissionCount = 10
)

// MatchStore is the durable record of duels. Implementations must report a
// missing match with ErrMatchNotFound, an activation race with ErrMatchFull
// and a finalization race with ErrMatchFinished - the conditional updates are
// the per-match guard that serializes concurrent transitions.
type MatchStore interface {
	GetMatch(ctx context.Context, matchId string) (entities.Match, error)
	PutMatch(ctx context.Context, match entities.Match) error
	ActivateMatch(ctx context.Context, matchId, player2Id string, startedAt time.Time) error
	FinalizeMatch(ctx context.Context, matchId, winnerId string, endedAt time.Time) error
	AbortMatch(ctx context.Context, matchId string, endedAt time.Time) error
}

// ProblemCatalog selects problem snapshots for new matches.
type ProblemCatalog interface {
	SampleProblem(ctx context.Context, minRating, maxRating int) (entities.Problem, error)
}

// AccountDirectory resolves users and keeps their win/loss counters.
type AccountDirectory interface {
	GetUser(ctx context.Context, userId string) (entities.User, error)
	IncrementWins(ctx context.Context, userId string) error
	IncrementLosses(ctx context.Context, userId string) error
}

// Submission is one judge verdict for a user, newest first in the judge's
// return order.
type Submission struct {
	ContestId   int
	Index       string
	Verdict     string
	SubmittedAt time.Time
}

// VerdictAccepted is the judge's designation for a passing submission.
const VerdictAccepted = "OK"

// Judge lists a handle's most recent submissions. Calls are never retried
// here; a failed check is surfaced to the caller as retryable.
type Judge interface {
	ListRecentSubmissions(ctx context.Context, handle string, count int) ([]Submission, error)
}

// Notifier pushes lifecycle events to live connections. Delivery is best
// effort; clients tolerate duplicates and can always re-poll CheckSubmission.
type Notifier interface {
	SendToConnection(connId, event string, payload any) error
	BroadcastToRoom(roomToken, event string, payload any)
}

type MatchFoundPayload struct {
	RoomToken string           `json:"roomToken"`
	MatchId   string           `json:"matchId"`
	Opponent  string           `json:"opponent"`
	Problem   entities.Problem `json:"problem"`
}

type GameOverPayload struct {
	WinnerId string `json:"winnerId"`
}

// Service owns the matchmaking queue and drives the match lifecycle. Matches
// are mutated only here, each mutation being a single conditional store write.
type Service struct {
	matches  MatchStore
	problems ProblemCatalog
	users    AccountDirectory
	judge    Judge
	notifier Notifier
	queue    *Queue

	now func() time.Time
}

func NewService(
	matches MatchStore,
	problems ProblemCatalog,
	users AccountDirectory,
	judge Judge,
	notifier Notifier,
) *Service {
	return &Service{
		matches:  matches,
		problems: problems,
		users:    users,
		judge:    judge,
		notifier: notifier,
		queue:    NewQueue(),
		now:      time.Now,
	}
}

// CreateMatch starts the explicit two-step path: a fresh match in WAITING
// with player two unset, holding a problem snapshot from the given range.
func (s *Service) CreateMatch(
	ctx context.Context,
	playerOneId string,
	minRating, maxRating int,
) (entities.Match, error) {
	if _, err := s.users.GetUser(ctx, playerOneId); err != nil {
		return entities.Match{}, err
	}
	problem, err := s.problems.SampleProblem(ctx, minRating, maxRating)
	if err != nil {
		return entities.Match{}, err
	}
	match := entities.Match{
		Id:        utils.GenerateUUID(),
		RoomToken: utils.GenerateUUID(),
		Player1Id: playerOneId,
		Problem:   problem,
		Status:    entities.MatchWaiting,
		CreatedAt: s.now(),
	}
	if err := s.matches.PutMatch(ctx, match); err != nil {
		return entities.Match{}, err
	}
	logging.Info("match created",
		zap.String("match_id", match.Id),
		zap.String("player1_id", playerOneId),
		zap.String("problem", match.Problem.UniqueId()),
	)
	return match, nil
}

// JoinMatch is the only WAITING -> ACTIVE transition on the two-step path.
// The store's conditional update guards against two joiners racing for the
// same seat.
func (s *Service) JoinMatch(ctx context.Context, matchId, joinerId string) (entities.Match, error) {
	match, err := s.matches.GetMatch(ctx, matchId)
	if err != nil {
		return entities.Match{}, err
	}
	if match.Player2Id != "" {
		return entities.Match{}, ErrMatchFull
	}
	if match.Terminal() {
		return entities.Match{}, ErrMatchFinished
	}
	if match.Player1Id == joinerId {
		return entities.Match{}, ErrSelfJoin
	}

	startedAt := s.now()
	if err := s.matches.ActivateMatch(ctx, matchId, joinerId, startedAt); err != nil {
		return entities.Match{}, err
	}
	match.Player2Id = joinerId
	match.Status = entities.MatchActive
	match.StartedAt = &startedAt

	logging.Info("match joined",
		zap.String("match_id", matchId),
		zap.String("player2_id", joinerId),
	)
	return match, nil
}

// PairFromQueue creates a match directly in ACTIVE for two players coming
// out of the matchmaking queue, skipping WAITING entirely.
func (s *Service) PairFromQueue(
	ctx context.Context,
	playerOneId, playerTwoId string,
	minRating, maxRating int,
) (entities.Match, error) {
	problem, err := s.problems.SampleProblem(ctx, minRating, maxRating)
	if err != nil {
		return entities.Match{}, err
	}
	startedAt := s.now()
	match := entities.Match{
		Id:        utils.GenerateUUID(),
		RoomToken: utils.GenerateUUID(),
		Player1Id: playerOneId,
		Player2Id: playerTwoId,
		Problem:   problem,
		Status:    entities.MatchActive,
		StartedAt: &startedAt,
		CreatedAt: startedAt,
	}
	if err := s.matches.PutMatch(ctx, match); err != nil {
		return entities.Match{}, err
	}
	logging.Info("match paired from queue",
		zap.String("match_id", match.Id),
		zap.String("player1_id", playerOneId),
		zap.String("player2_id", playerTwoId),
		zap.String("problem", match.Problem.UniqueId()),
	)
	return match, nil
}

// Enqueue buffers the entrant or, if someone compatible is already waiting,
// pairs them: the match is created and each side receives its own
// match_found event naming the other as opponent.
func (s *Service) Enqueue(ctx context.Context, entrant Entrant, minRating, maxRating int) error {
	opponent, paired, err := s.queue.EnqueueOrPair(entrant)
	if err != nil {
		return err
	}
	if !paired {
		logging.Info("user queued",
			zap.String("user_id", entrant.UserId),
			zap.String("username", entrant.Username),
		)
		return nil
	}

	match, err := s.PairFromQueue(ctx, opponent.UserId, entrant.UserId, minRating, maxRating)
	if err != nil {
		return err
	}

	if err := s.notifier.SendToConnection(opponent.ConnId, EventMatchFound, MatchFoundPayload{
		RoomToken: match.RoomToken,
		MatchId:   match.Id,
		Opponent:  entrant.Username,
		Problem:   match.Problem,
	}); err != nil {
		logging.Error("couldn't notify waiting player",
			zap.String("user_id", opponent.UserId),
			zap.Error(err),
		)
	}
	if err := s.notifier.SendToConnection(entrant.ConnId, EventMatchFound, MatchFoundPayload{
		RoomToken: match.RoomToken,
		MatchId:   match.Id,
		Opponent:  opponent.Username,
		Problem:   match.Problem,
	}); err != nil {
		logging.Error("couldn't notify joining player",
			zap.String("user_id", entrant.UserId),
			zap.Error(err),
		)
	}
	return nil
}

// AbortMatch lets a participant cancel a match that hasn't been decided.
// The room is told so the other side stops solving.
func (s *Service) AbortMatch(ctx context.Context, matchId, userId string) error {
	match, err := s.matches.GetMatch(ctx, matchId)
	if err != nil {
		return err
	}
	if match.Player1Id != userId && match.Player2Id != userId {
		return ErrMatchNotFound
	}
	if match.Terminal() {
		return ErrMatchFinished
	}
	if err := s.matches.AbortMatch(ctx, matchId, s.now()); err != nil {
		return err
	}
	logging.Info("match aborted",
		zap.String("match_id", matchId),
		zap.String("user_id", userId),
	)
	s.notifier.BroadcastToRoom(match.RoomToken, EventMatchAborted, nil)
	return nil
}

// RemoveIfWaiting drops the entry with the given connection id from the
// queue, if it is still there. Called on disconnect.
func (s *Service) RemoveIfWaiting(connId string) bool {
	removed := s.queue.RemoveIfWaiting(connId)
	if removed {
		logging.Info("waiting player removed from queue", zap.String("conn_id", connId))
	}
	return removed
}
