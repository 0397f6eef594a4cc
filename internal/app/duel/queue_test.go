package duel

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueEnqueueThenPair(t *testing.T) {
	q := NewQueue()

	a := Entrant{ConnId: "conn-a", UserId: "user-a", Username: "alice", Rating: 1200}
	b := Entrant{ConnId: "conn-b", UserId: "user-b", Username: "bob", Rating: 1300}

	_, paired, err := q.EnqueueOrPair(a)
	require.NoError(t, err)
	assert.False(t, paired)

	opponent, paired, err := q.EnqueueOrPair(b)
	require.NoError(t, err)
	assert.True(t, paired)
	assert.Equal(t, a, opponent)

	_, waiting := q.Waiting()
	assert.False(t, waiting, "slot must be empty after pairing")
}

func TestQueueSelfMatchRejectedWithoutCorruptingSlot(t *testing.T) {
	q := NewQueue()

	a := Entrant{ConnId: "conn-a1", UserId: "user-a", Username: "alice"}
	_, paired, err := q.EnqueueOrPair(a)
	require.NoError(t, err)
	require.False(t, paired)

	// Same user from a second tab must not pair with themselves.
	aAgain := Entrant{ConnId: "conn-a2", UserId: "user-a", Username: "alice"}
	_, paired, err = q.EnqueueOrPair(aAgain)
	assert.ErrorIs(t, err, ErrAlreadyQueued)
	assert.False(t, paired)

	// The original entry is still there for a legitimate third party.
	occupant, waiting := q.Waiting()
	require.True(t, waiting)
	assert.Equal(t, a, occupant)

	c := Entrant{ConnId: "conn-c", UserId: "user-c", Username: "carol"}
	opponent, paired, err := q.EnqueueOrPair(c)
	require.NoError(t, err)
	assert.True(t, paired)
	assert.Equal(t, a, opponent)
}

func TestQueueRemoveIfWaiting(t *testing.T) {
	q := NewQueue()

	a := Entrant{ConnId: "conn-a", UserId: "user-a"}
	_, _, err := q.EnqueueOrPair(a)
	require.NoError(t, err)

	// Disconnect of an unrelated connection is a no-op.
	assert.False(t, q.RemoveIfWaiting("conn-x"))
	_, waiting := q.Waiting()
	assert.True(t, waiting)

	assert.True(t, q.RemoveIfWaiting("conn-a"))
	_, waiting = q.Waiting()
	assert.False(t, waiting)

	// Stale disconnect after the entry was already removed.
	assert.False(t, q.RemoveIfWaiting("conn-a"))
}

func TestQueueRemoveIfWaitingIgnoresReplacedEntry(t *testing.T) {
	q := NewQueue()

	a := Entrant{ConnId: "conn-a", UserId: "user-a"}
	b := Entrant{ConnId: "conn-b", UserId: "user-b"}
	c := Entrant{ConnId: "conn-c", UserId: "user-c"}

	_, _, err := q.EnqueueOrPair(a)
	require.NoError(t, err)
	_, paired, err := q.EnqueueOrPair(b)
	require.NoError(t, err)
	require.True(t, paired)
	_, _, err = q.EnqueueOrPair(c)
	require.NoError(t, err)

	// a was paired long ago; its late disconnect must not evict c.
	assert.False(t, q.RemoveIfWaiting("conn-a"))
	occupant, waiting := q.Waiting()
	require.True(t, waiting)
	assert.Equal(t, c, occupant)
}

func TestQueueConcurrentEnqueueNeverDuplicatesOccupant(t *testing.T) {
	q := NewQueue()

	const n = 8
	var (
		mu    sync.Mutex
		pairs [][2]string
		wg    sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e := Entrant{
				ConnId: string(rune('0' + i)),
				UserId: string(rune('a' + i)),
			}
			opponent, paired, err := q.EnqueueOrPair(e)
			assert.NoError(t, err)
			if paired {
				mu.Lock()
				pairs = append(pairs, [2]string{opponent.UserId, e.UserId})
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, pair := range pairs {
		for _, userId := range pair {
			assert.False(t, seen[userId], "user %s paired twice", userId)
			seen[userId] = true
		}
	}
	remaining := 0
	if occupant, waiting := q.Waiting(); waiting {
		remaining = 1
		assert.False(t, seen[occupant.UserId], "leftover occupant %s was also paired", occupant.UserId)
	}
	// Every entrant ends up in exactly one pair or as the final occupant.
	assert.Equal(t, n, len(pairs)*2+remaining)
}
