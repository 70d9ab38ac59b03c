package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmemscope/memscope/pkg/errors"
	"github.com/getmemscope/memscope/pkg/trend"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newRun(label string, started time.Time) *Run {
	return &Run{
		Label:      label,
		Command:    "stress --vm 1",
		CSVPath:    "/tmp/" + label + ".csv",
		StartedAt:  started,
		FinishedAt: started.Add(10 * time.Minute),
	}
}

func TestSaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := newRun("baseline", time.Now().Add(-time.Hour))
	run.ApplyReport(trend.Report{
		SampleCount:   20,
		EndRSSMB:      120.5,
		SlopeKBPerMin: 42,
		RSquared:      0.3,
	})
	require.NoError(t, s.Save(ctx, run))
	require.NotEmpty(t, run.ID, "Save should assign an ID")

	got, err := s.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "baseline", got.Label)
	assert.Equal(t, 20, got.SampleCount)
	assert.InDelta(t, 120.5, got.EndRSSMB, 0.001)
	assert.False(t, got.LeakDetected)
	assert.Equal(t, 10*time.Minute, got.Duration())
}

func TestGetByPrefix(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := newRun("x", time.Now())
	require.NoError(t, s.Save(ctx, run))

	got, err := s.Get(ctx, run.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)

	_, err = s.Get(ctx, "ffffffff")
	assert.True(t, errors.Is(err, errors.ErrCodeRunNotFound), "err = %v", err)

	_, err = s.Get(ctx, "")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "err = %v", err)

	_, err = s.Get(ctx, "%")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "err = %v", err)
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-3 * time.Hour)
	for i, label := range []string{"old", "mid", "new"} {
		require.NoError(t, s.Save(ctx, newRun(label, base.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "new", runs[0].Label)
	assert.Equal(t, "old", runs[2].Label)

	limited, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
	assert.Equal(t, "new", limited[0].Label)
}

func TestPrune(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-5 * time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Save(ctx, newRun("r", base.Add(time.Duration(i)*time.Hour))))
	}

	deleted, err := s.Prune(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)

	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	// Pruning again is a no-op
	deleted, err = s.Prune(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 0, deleted)

	_, err = s.Prune(ctx, -1)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "err = %v", err)
}
