// Package jobstore provides the job record store backends. The scheduler is
// the only writer after creation; status reads return copies so pollers never
// observe a half-applied update.
package jobstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/myrddinforetold-commits/sora-enhancer/internal/domain"
)

// Memory is the default in-process job record store.
type Memory struct {
	mu   sync.RWMutex
	jobs map[string]domain.Job
	now  func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{jobs: make(map[string]domain.Job), now: time.Now}
}

// Create inserts a new job record. Identifiers are never reused, so an
// existing id is rejected rather than overwritten.
func (m *Memory) Create(ctx context.Context, job *domain.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.ID]; ok {
		return fmt.Errorf("jobstore: %w: %s", domain.ErrDuplicateJob, job.ID)
	}
	now := m.now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	m.jobs[job.ID] = *job
	return nil
}

// Get returns a snapshot of the job or domain.ErrNotFound.
func (m *Memory) Get(ctx context.Context, id string) (*domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &job, nil
}

// Update applies a partial mutation to a non-terminal job and returns the
// resulting snapshot. Terminal jobs reject every update; progress never
// moves backwards.
func (m *Memory) Update(ctx context.Context, id string, upd domain.JobUpdate) (*domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if job.Status.Terminal() {
		return nil, fmt.Errorf("jobstore: %w: %s is %s", domain.ErrInvalidTransition, id, job.Status)
	}
	if upd.Status != nil {
		job.Status = *upd.Status
	}
	if upd.Progress != nil && *upd.Progress > job.Progress {
		job.Progress = *upd.Progress
	}
	if upd.Step != nil {
		job.Step = *upd.Step
	}
	if upd.OutputRef != nil {
		job.OutputRef = *upd.OutputRef
	}
	if upd.ErrorMessage != nil {
		job.ErrorMessage = *upd.ErrorMessage
	}
	job.UpdatedAt = m.now().UTC()
	m.jobs[id] = job
	return &job, nil
}

// ListQueued returns queued jobs created before cutoff in submission order.
func (m *Memory) ListQueued(ctx context.Context, cutoff time.Time) ([]domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Job
	for _, job := range m.jobs {
		if job.Status == domain.JobStatusQueued && job.CreatedAt.Before(cutoff) {
			out = append(out, job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ListStale returns processing jobs that have not advanced since cutoff.
func (m *Memory) ListStale(ctx context.Context, cutoff time.Time) ([]domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Job
	for _, job := range m.jobs {
		if job.Status == domain.JobStatusProcessing && job.UpdatedAt.Before(cutoff) {
			out = append(out, job)
		}
	}
	return out, nil
}

// ListExpired returns terminal jobs older than cutoff.
func (m *Memory) ListExpired(ctx context.Context, cutoff time.Time) ([]domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Job
	for _, job := range m.jobs {
		if job.Status.Terminal() && job.UpdatedAt.Before(cutoff) {
			out = append(out, job)
		}
	}
	return out, nil
}

// Delete removes a record. Missing ids are not an error; eviction races with
// itself across sweeper runs.
func (m *Memory) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, id)
	return nil
}

// Len reports the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.jobs)
}
