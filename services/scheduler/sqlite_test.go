package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"backtest-service/services/backtest"
	"backtest-service/services/metrics"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sqliteTestJob(id string) *Job {
	return &Job{
		ID:        id,
		Request:   testReq("AAPL", 2),
		Status:    StatusPending,
		CreatedAt: time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSQLiteCreateAndGet(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, sqliteTestJob("job-1")))

	job, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, job.Status)
	assert.Equal(t, time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC), job.CreatedAt)
	require.NotNil(t, job.Request)
	assert.Equal(t, "MomentumStrategy", job.Request.Strategy.Name)
	assert.Equal(t, 2, job.Request.Priority)
	assert.Nil(t, job.Result)
	assert.Nil(t, job.ExecutionTime)
}

func TestSQLiteGetUnknown(t *testing.T) {
	store := newTestSQLiteStore(t)
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStatusLifecycle(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, sqliteTestJob("job-1")))

	require.NoError(t, store.UpdateStatus(ctx, "job-1", StatusPending, StatusRunning, Update{}))
	job, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, job.Status)

	execTime := 1.25
	result := &backtest.Result{OverallMetrics: metrics.Metrics{NumTrades: 7}}
	require.NoError(t, store.UpdateStatus(ctx, "job-1", StatusRunning, StatusCompleted, Update{
		ExecutionTime: &execTime,
		Result:        result,
	}))

	job, err = store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, job.Status)
	require.NotNil(t, job.ExecutionTime)
	assert.Equal(t, 1.25, *job.ExecutionTime)
	require.NotNil(t, job.Result)
	assert.Equal(t, 7, job.Result.OverallMetrics.NumTrades)
	assert.Empty(t, job.Error)
}

func TestSQLiteFailureKeepsError(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, sqliteTestJob("job-1")))

	require.NoError(t, store.UpdateStatus(ctx, "job-1", StatusPending, StatusRunning, Update{}))
	require.NoError(t, store.UpdateStatus(ctx, "job-1", StatusRunning, StatusFailed, Update{Error: "boom"}))

	job, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, job.Status)
	assert.Equal(t, "boom", job.Error)
	assert.Nil(t, job.Result)
}

func TestSQLiteUpdateUnknown(t *testing.T) {
	store := newTestSQLiteStore(t)
	err := store.UpdateStatus(context.Background(), "missing", StatusPending, StatusRunning, Update{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStatusCompareAndSwap(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, sqliteTestJob("job-1")))

	// Wrong expected status leaves the row untouched.
	err := store.UpdateStatus(ctx, "job-1", StatusRunning, StatusCompleted, Update{})
	assert.ErrorIs(t, err, ErrStatusConflict)

	require.NoError(t, store.UpdateStatus(ctx, "job-1", StatusPending, StatusCancelled, Update{}))

	// A claim after a cancel loses the swap.
	err = store.UpdateStatus(ctx, "job-1", StatusPending, StatusRunning, Update{})
	assert.ErrorIs(t, err, ErrStatusConflict)

	job, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, job.Status)
}

func TestSQLiteSchedulerIntegration(t *testing.T) {
	store := newTestSQLiteStore(t)
	s := New(store, &stubRunner{}, 2, zap.NewNop())
	s.Start(context.Background())
	defer s.Stop()

	id, err := s.Submit(context.Background(), testReq("AAPL", 1))
	require.NoError(t, err)

	job := waitTerminal(t, s, id)
	assert.Equal(t, StatusCompleted, job.Status)

	// The persisted row agrees with the cached terminal state.
	persisted, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, persisted.Status)
	require.NotNil(t, persisted.Result)
}
