package duel

import "sync"

// Entrant is a player waiting to be paired. It lives only between the
// join_queue event and pairing or disconnect, and is never persisted.
type Entrant struct {
	ConnId   string
	UserId   string
	Username string
	Rating   int
}

// Queue holds at most one waiting entrant. All access is serialized so the
// read-compare-clear sequence of a pairing attempt is a single atomic unit:
// two simultaneous attempts can never both pair with the same occupant.
type Queue struct {
	mu      sync.Mutex
	waiting *Entrant
}

func NewQueue() *Queue {
	return &Queue{}
}

// EnqueueOrPair stores the entrant if the slot is empty and reports
// paired=false. If the slot holds another user, it clears the slot and
// returns the occupant as the opponent. An entrant matching the occupant's
// user id is rejected with ErrAlreadyQueued without touching the slot, so a
// self-match attempt cannot corrupt the queue for a legitimate third party.
func (q *Queue) EnqueueOrPair(entrant Entrant) (Entrant, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.waiting == nil {
		e := entrant
		q.waiting = &e
		return Entrant{}, false, nil
	}
	if q.waiting.UserId == entrant.UserId {
		return Entrant{}, false, ErrAlreadyQueued
	}
	opponent := *q.waiting
	q.waiting = nil
	return opponent, true, nil
}

// RemoveIfWaiting clears the slot only if it still holds the entry with the
// given connection id. Stale disconnects for entries that were already paired
// or replaced are no-ops.
func (q *Queue) RemoveIfWaiting(connId string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.waiting == nil || q.waiting.ConnId != connId {
		return false
	}
	q.waiting = nil
	return true
}

// Waiting returns the current occupant, if any.
func (q *Queue) Waiting() (Entrant, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.waiting == nil {
		return Entrant{}, false
	}
	return *q.waiting, true
}
