package seeder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/codeduel-vn/codeduel/internal/codeforces"
	"github.com/codeduel-vn/codeduel/internal/domains/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	problems []codeforces.Problem
	err      error
}

func (f *fakeLister) ListProblems(_ context.Context) ([]codeforces.Problem, error) {
	return f.problems, f.err
}

type fakeWriter struct {
	written []entities.Problem
	err     error
}

func (f *fakeWriter) PutProblem(_ context.Context, problem entities.Problem) error {
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, problem)
	return nil
}

func TestSyncOnceUpsertsRatedTaggedProblems(t *testing.T) {
	lister := &fakeLister{problems: []codeforces.Problem{
		{ContestId: 4, Index: "A", Name: "Watermelon", Rating: 800, Tags: []string{"math"}},
		{ContestId: 1, Index: "B", Name: "Unrated", Tags: []string{"greedy"}},
		{ContestId: 2, Index: "C", Name: "Untagged", Rating: 1500},
		{ContestId: 71, Index: "A", Name: "Way Too Long Words", Rating: 800, Tags: []string{"strings"}},
	}}
	writer := &fakeWriter{}

	seeded, err := New(lister, writer, time.Hour).SyncOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, seeded)
	require.Len(t, writer.written, 2)

	first := writer.written[0]
	assert.Equal(t, "4_A", first.UniqueId())
	assert.Equal(t, "https://codeforces.com/contest/4/problem/A", first.Url)
	assert.Equal(t, []string{"math"}, first.Tags)
	assert.Equal(t, "71_A", writer.written[1].UniqueId())
}

func TestSyncOnceListerFailure(t *testing.T) {
	lister := &fakeLister{err: errors.New("api down")}
	writer := &fakeWriter{}

	_, err := New(lister, writer, time.Hour).SyncOnce(context.Background())
	assert.Error(t, err)
	assert.Empty(t, writer.written)
}

func TestSyncOnceWriterFailureStopsEarly(t *testing.T) {
	lister := &fakeLister{problems: []codeforces.Problem{
		{ContestId: 4, Index: "A", Name: "Watermelon", Rating: 800, Tags: []string{"math"}},
	}}
	writer := &fakeWriter{err: errors.New("table missing")}

	seeded, err := New(lister, writer, time.Hour).SyncOnce(context.Background())
	assert.Error(t, err)
	assert.Zero(t, seeded)
}
