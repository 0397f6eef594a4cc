package duel

import (
	"context"
	"sync"
	"time"

	"github.com/codeduel-vn/codeduel/internal/domains/entities"
)

// fakeMatchStore mirrors the conditional-update semantics of the DynamoDB
// store: activation requires WAITING, finalization requires ACTIVE.
type fakeMatchStore struct {
	mu      sync.Mutex
	matches map[string]entities.Match
	putErr  error
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{matches: make(map[string]entities.Match)}
}

func (f *fakeMatchStore) GetMatch(_ context.Context, matchId string) (entities.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	match, ok := f.matches[matchId]
	if !ok {
		return entities.Match{}, ErrMatchNotFound
	}
	return match, nil
}

func (f *fakeMatchStore) PutMatch(_ context.Context, match entities.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.matches[match.Id] = match
	return nil
}

func (f *fakeMatchStore) ActivateMatch(_ context.Context, matchId, player2Id string, startedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	match, ok := f.matches[matchId]
	if !ok {
		return ErrMatchNotFound
	}
	if match.Status != entities.MatchWaiting {
		return ErrMatchFull
	}
	match.Player2Id = player2Id
	match.Status = entities.MatchActive
	match.StartedAt = &startedAt
	f.matches[matchId] = match
	return nil
}

func (f *fakeMatchStore) FinalizeMatch(_ context.Context, matchId, winnerId string, endedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	match, ok := f.matches[matchId]
	if !ok {
		return ErrMatchNotFound
	}
	if match.Status != entities.MatchActive {
		return ErrMatchFinished
	}
	match.Status = entities.MatchFinished
	match.WinnerId = winnerId
	match.EndedAt = &endedAt
	f.matches[matchId] = match
	return nil
}

func (f *fakeMatchStore) AbortMatch(_ context.Context, matchId string, endedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	match, ok := f.matches[matchId]
	if !ok {
		return ErrMatchNotFound
	}
	if match.Terminal() {
		return ErrMatchFinished
	}
	match.Status = entities.MatchAborted
	match.EndedAt = &endedAt
	f.matches[matchId] = match
	return nil
}

func (f *fakeMatchStore) stored(matchId string) entities.Match {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.matches[matchId]
}

type fakeCatalog struct {
	problem entities.Problem
	err     error
}

func (f *fakeCatalog) SampleProblem(_ context.Context, minRating, maxRating int) (entities.Problem, error) {
	if f.err != nil {
		return entities.Problem{}, f.err
	}
	return f.problem, nil
}

type fakeDirectory struct {
	mu     sync.Mutex
	users  map[string]entities.User
	wins   map[string]int
	losses map[string]int
}

func newFakeDirectory(users ...entities.User) *fakeDirectory {
	f := &fakeDirectory{
		users:  make(map[string]entities.User),
		wins:   make(map[string]int),
		losses: make(map[string]int),
	}
	for _, u := range users {
		f.users[u.Id] = u
	}
	return f
}

func (f *fakeDirectory) GetUser(_ context.Context, userId string) (entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userId]
	if !ok {
		return entities.User{}, ErrUserNotFound
	}
	return user, nil
}

func (f *fakeDirectory) IncrementWins(_ context.Context, userId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wins[userId]++
	return nil
}

func (f *fakeDirectory) IncrementLosses(_ context.Context, userId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.losses[userId]++
	return nil
}

func (f *fakeDirectory) counters(userId string) (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wins[userId], f.losses[userId]
}

type fakeJudge struct {
	mu          sync.Mutex
	submissions []Submission
	err         error
	calls       int
}

func (f *fakeJudge) ListRecentSubmissions(_ context.Context, handle string, count int) ([]Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.submissions) > count {
		return f.submissions[:count], nil
	}
	return f.submissions, nil
}

func (f *fakeJudge) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type sentEvent struct {
	connId  string
	event   string
	payload any
}

type broadcastEvent struct {
	roomToken string
	event     string
	payload   any
}

type fakeNotifier struct {
	mu         sync.Mutex
	sent       []sentEvent
	broadcasts []broadcastEvent
}

func (f *fakeNotifier) SendToConnection(connId, event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEvent{connId: connId, event: event, payload: payload})
	return nil
}

func (f *fakeNotifier) BroadcastToRoom(roomToken, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, broadcastEvent{roomToken: roomToken, event: event, payload: payload})
}

func (f *fakeNotifier) sentTo(connId string) []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentEvent
	for _, e := range f.sent {
		if e.connId == connId {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeNotifier) broadcastCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.broadcasts)
}

type fixture struct {
	service  *Service
	matches  *fakeMatchStore
	catalog  *fakeCatalog
	users    *fakeDirectory
	judge    *fakeJudge
	notifier *fakeNotifier
}

func newFixture(users ...entities.User) *fixture {
	f := &fixture{
		matches: newFakeMatchStore(),
		catalog: &fakeCatalog{problem: entities.Problem{
			ContestId: 4,
			Index:     "A",
			Name:      "Watermelon",
			Rating:    800,
			Url:       "https://codeforces.com/contest/4/problem/A",
		}},
		users:    newFakeDirectory(users...),
		judge:    &fakeJudge{},
		notifier: &fakeNotifier{},
	}
	f.service = NewService(f.matches, f.catalog, f.users, f.judge, f.notifier)
	return f
}
