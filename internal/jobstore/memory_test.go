package jobstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myrddinforetold-commits/sora-enhancer/internal/domain"
)

func statusPtr(s domain.JobStatus) *domain.JobStatus { return &s }
func intPtr(i int) *int                              { return &i }
func strPtr(s string) *string                        { return &s }

func newQueuedJob(id string) *domain.Job {
	return &domain.Job{ID: id, Status: domain.JobStatusQueued, Options: domain.DefaultOptions()}
}

func TestMemory_CreateRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	require.NoError(t, store.Create(ctx, newQueuedJob("a")))
	err := store.Create(ctx, newQueuedJob("a"))
	assert.ErrorIs(t, err, domain.ErrDuplicateJob)
	assert.Equal(t, 1, store.Len())
}

func TestMemory_GetReturnsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	require.NoError(t, store.Create(ctx, newQueuedJob("a")))

	before, err := store.Get(ctx, "a")
	require.NoError(t, err)
	before.Progress = 99 // mutating the snapshot must not touch the record

	after, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 0, after.Progress)
}

func TestMemory_GetUnknownID(t *testing.T) {
	store := NewMemory()
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemory_UpdateRejectsTerminalJob(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	require.NoError(t, store.Create(ctx, newQueuedJob("a")))

	_, err := store.Update(ctx, "a", domain.JobUpdate{Status: statusPtr(domain.JobStatusComplete), Progress: intPtr(100)})
	require.NoError(t, err)

	_, err = store.Update(ctx, "a", domain.JobUpdate{Progress: intPtr(10)})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	job, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusComplete, job.Status)
	assert.Equal(t, 100, job.Progress)
}

func TestMemory_ProgressNeverDecreases(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	require.NoError(t, store.Create(ctx, newQueuedJob("a")))

	_, err := store.Update(ctx, "a", domain.JobUpdate{Progress: intPtr(60)})
	require.NoError(t, err)
	job, err := store.Update(ctx, "a", domain.JobUpdate{Progress: intPtr(30), Step: strPtr("later step")})
	require.NoError(t, err)

	assert.Equal(t, 60, job.Progress)
	assert.Equal(t, "later step", job.Step)
}

func TestMemory_ListStaleAndExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Create(ctx, newQueuedJob("stuck")))
	_, err := store.Update(ctx, "stuck", domain.JobUpdate{Status: statusPtr(domain.JobStatusProcessing)})
	require.NoError(t, err)

	require.NoError(t, store.Create(ctx, newQueuedJob("done")))
	_, err = store.Update(ctx, "done", domain.JobUpdate{Status: statusPtr(domain.JobStatusComplete), Progress: intPtr(100)})
	require.NoError(t, err)

	cutoff := now.Add(time.Minute)
	stale, err := store.ListStale(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "stuck", stale[0].ID)

	expired, err := store.ListExpired(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "done", expired[0].ID)

	// Nothing qualifies before the updates happened.
	stale, err = store.ListStale(ctx, now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Empty(t, stale)
}

func TestMemory_ListQueuedOrdersBySubmission(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Create(ctx, newQueuedJob("second")))
	now = now.Add(-time.Minute)
	require.NoError(t, store.Create(ctx, newQueuedJob("first")))
	now = now.Add(2 * time.Minute)

	// A picked-up job no longer counts as queued.
	require.NoError(t, store.Create(ctx, newQueuedJob("running")))
	_, err := store.Update(ctx, "running", domain.JobUpdate{Status: statusPtr(domain.JobStatusProcessing)})
	require.NoError(t, err)

	queued, err := store.ListQueued(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, queued, 2)
	assert.Equal(t, "first", queued[0].ID)
	assert.Equal(t, "second", queued[1].ID)

	// Everything was created after this cutoff.
	queued, err = store.ListQueued(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, queued)
}

func TestMemory_ConcurrentUpdatesDistinctJobs(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	ids := []string{"a", "b", "c", "d"}
	for _, id := range ids {
		require.NoError(t, store.Create(ctx, newQueuedJob(id)))
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for p := 1; p <= 100; p++ {
				if _, err := store.Update(ctx, id, domain.JobUpdate{Progress: intPtr(p)}); err != nil {
					t.Errorf("update %s: %v", id, err)
					return
				}
			}
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		job, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 100, job.Progress)
	}
}

func TestMemory_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	require.NoError(t, store.Create(ctx, newQueuedJob("a")))
	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx, "a"))
	assert.Equal(t, 0, store.Len())
}
