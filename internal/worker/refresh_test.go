package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ashureev/juice-coach/internal/coach"
	"github.com/ashureev/juice-coach/internal/domain"
	"github.com/ashureev/juice-coach/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedSource struct {
	mu      sync.Mutex
	batches [][]domain.Challenge
	err     error
	calls   int
}

func (s *scriptedSource) Challenges(context.Context) ([]domain.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.batches) == 0 {
		return nil, nil
	}
	b := s.batches[0]
	if len(s.batches) > 1 {
		s.batches = s.batches[1:]
	}
	return b, nil
}

func (s *scriptedSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newSession(t *testing.T) *coach.Session {
	t.Helper()
	s := coach.NewSession(context.Background(), store.NewProgressStore(store.NewMemory(), nil), coach.Options{})
	t.Cleanup(s.Close)
	return s
}

var (
	solvedBatch = []domain.Challenge{
		{Key: "a", Name: "a", Category: "X", Difficulty: 1, Solved: true},
		{Key: "b", Name: "b", Category: "X", Difficulty: 2},
	}
	wipedBatch = []domain.Challenge{
		{Key: "a", Name: "a", Category: "X", Difficulty: 1},
		{Key: "b", Name: "b", Category: "X", Difficulty: 2},
	}
)

func TestRefreshOnceUpdatesTarget(t *testing.T) {
	s := newSession(t)
	src := &scriptedSource{batches: [][]domain.Challenge{solvedBatch}}

	require.True(t, RefreshOnce(context.Background(), src, s, false))
	assert.Equal(t, solvedBatch, s.Challenges())
}

func TestRefreshOnceKeepsListOnError(t *testing.T) {
	s := newSession(t)
	s.SetChallenges(solvedBatch)

	ok := RefreshOnce(context.Background(), &scriptedSource{err: errors.New("down")}, s, true)
	assert.False(t, ok)
	assert.Equal(t, solvedBatch, s.Challenges())
}

func TestRefreshOnceDetectsWipe(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	s.RequestHint(ctx, "b", 3)
	src := &scriptedSource{batches: [][]domain.Challenge{solvedBatch, wipedBatch}}

	RefreshOnce(ctx, src, s, true)
	assert.NotEmpty(t, s.State().ChallengeState)

	RefreshOnce(ctx, src, s, true)
	assert.Empty(t, s.State().ChallengeState)
}

func TestRefreshOnceWipeIgnoredWhenDisabled(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	s.RequestHint(ctx, "b", 3)
	src := &scriptedSource{batches: [][]domain.Challenge{solvedBatch, wipedBatch}}

	RefreshOnce(ctx, src, s, false)
	RefreshOnce(ctx, src, s, false)
	assert.NotEmpty(t, s.State().ChallengeState)
}

func TestStartRefreshWorkerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSession(t)
	src := &scriptedSource{batches: [][]domain.Challenge{solvedBatch}}

	StartRefreshWorker(ctx, src, s, RefreshConfig{Interval: 10 * time.Millisecond})

	assert.Eventually(t, func() bool { return src.callCount() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	assert.Equal(t, solvedBatch, s.Challenges())
}
