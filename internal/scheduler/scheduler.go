// Package scheduler owns the job lifecycle after submission: a bounded pool
// of workers drains a FIFO queue, drives each job's compiled stage plan
// against the processing engine, and commits terminal state exactly once.
// A liveness watchdog force-fails jobs that stop advancing, and a retention
// sweeper evicts terminal records with their blobs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/myrddinforetold-commits/sora-enhancer/internal/domain"
	"github.com/myrddinforetold-commits/sora-enhancer/internal/pipeline"
)

// Config bounds the scheduler's concurrency and timing. Zero values fall
// back to the documented defaults.
type Config struct {
	Workers          int
	QueueCapacity    int
	StageTimeout     time.Duration
	LivenessWindow   time.Duration
	WatchdogInterval time.Duration
	Retention        time.Duration
	SweepInterval    time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = 64
	}
	if c.StageTimeout <= 0 {
		c.StageTimeout = 5 * time.Minute
	}
	if c.LivenessWindow <= 0 {
		c.LivenessWindow = 10 * time.Minute
	}
	if c.WatchdogInterval <= 0 {
		c.WatchdogInterval = c.LivenessWindow / 4
	}
	if c.Retention <= 0 {
		c.Retention = 24 * time.Hour
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = c.Retention / 8
	}
	return c
}

// Scheduler executes queued jobs. Each job is processed end-to-end by exactly
// one worker; working files live in a per-job temp dir that is never exposed
// until the output is committed to the blob store.
type Scheduler struct {
	cfg    Config
	store  domain.JobStore
	blobs  domain.BlobStore
	engine domain.Engine
	logger zerolog.Logger
	queue  chan string
}

// New wires a scheduler; Run must be called before Enqueue has any effect.
func New(cfg Config, store domain.JobStore, blobs domain.BlobStore, engine domain.Engine, logger zerolog.Logger) *Scheduler {
	cfg = cfg.withDefaults()
	return &Scheduler{
		cfg:    cfg,
		store:  store,
		blobs:  blobs,
		engine: engine,
		logger: logger,
		queue:  make(chan string, cfg.QueueCapacity),
	}
}

// Enqueue adds a job id to the FIFO work queue. A full queue is reported to
// the caller rather than blocking submission.
func (s *Scheduler) Enqueue(jobID string) error {
	select {
	case s.queue <- jobID:
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Run starts the worker pool, watchdog, and retention sweeper, and blocks
// until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < s.cfg.Workers; i++ {
		g.Go(func() error { return s.workerLoop(ctx) })
	}
	g.Go(func() error { return s.watchdogLoop(ctx) })
	g.Go(func() error { return s.sweeperLoop(ctx) })
	startedAt := time.Now().UTC()
	g.Go(func() error { return s.recoverQueued(ctx, startedAt) })
	s.logger.Info().Int("workers", s.cfg.Workers).Msg("scheduler: started")
	return g.Wait()
}

// recoverQueued re-enqueues jobs persisted as queued before this process
// started. A durable store keeps records across restarts but the in-process
// queue does not, so without recovery those jobs would stay queued forever.
// Sends block until a worker frees a slot, preserving submission order.
func (s *Scheduler) recoverQueued(ctx context.Context, startedAt time.Time) error {
	jobs, err := s.store.ListQueued(ctx, startedAt)
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduler: queued recovery failed")
		return nil
	}
	for _, job := range jobs {
		select {
		case s.queue <- job.ID:
			s.logger.Info().Str("job_id", job.ID).Msg("scheduler: requeued job")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *Scheduler) workerLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case jobID := <-s.queue:
			s.process(ctx, jobID)
		}
	}
}

// process runs one job's full stage plan. All terminal writes happen here or
// in the watchdog; both tolerate losing the race via ErrInvalidTransition.
func (s *Scheduler) process(ctx context.Context, jobID string) {
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("scheduler: queued job missing")
		return
	}

	step := "Starting"
	if _, err := s.store.Update(ctx, jobID, domain.JobUpdate{
		Status:   statusPtr(domain.JobStatusProcessing),
		Progress: intPtr(0),
		Step:     &step,
	}); err != nil {
		// Already terminal (watchdog beat us) or gone; nothing to do.
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("scheduler: could not start job")
		return
	}
	s.logger.Info().Str("job_id", jobID).Msg("scheduler: picked job")

	plan := pipeline.Compile(job.Options)

	workDir, err := os.MkdirTemp("", "enhance-"+jobID+"-")
	if err != nil {
		s.fail(ctx, jobID, fmt.Sprintf("prepare workspace: %v", err))
		return
	}
	defer os.RemoveAll(workDir)

	current := filepath.Join(workDir, "input.mp4")
	if err := s.fetchInput(ctx, job.InputRef, current); err != nil {
		s.fail(ctx, jobID, fmt.Sprintf("read input: %v", err))
		return
	}

	total := len(plan)
	for i, stage := range plan {
		next := filepath.Join(workDir, fmt.Sprintf("stage-%02d.mp4", i+1))
		if err := s.runStage(ctx, stage, current, next); err != nil {
			if ctx.Err() != nil {
				// Shutting down mid-job: leave the record processing so
				// the watchdog surfaces the interruption after restart.
				s.logger.Warn().Str("job_id", jobID).Msg("scheduler: interrupted by shutdown")
				return
			}
			s.fail(ctx, jobID, err.Error())
			return
		}
		current = next
		if i+1 < total {
			progress := roundProgress(i+1, total)
			stageStep := stage.Step
			if _, err := s.store.Update(ctx, jobID, domain.JobUpdate{Progress: &progress, Step: &stageStep}); err != nil {
				s.logger.Warn().Err(err).Str("job_id", jobID).Msg("scheduler: progress update rejected")
				return
			}
		}
	}

	outputRef, err := s.commitOutput(ctx, jobID, current)
	if err != nil {
		s.fail(ctx, jobID, fmt.Sprintf("store output: %v", err))
		return
	}

	lastStep := plan[total-1].Step
	if _, err := s.store.Update(ctx, jobID, domain.JobUpdate{
		Status:    statusPtr(domain.JobStatusComplete),
		Progress:  intPtr(100),
		Step:      &lastStep,
		OutputRef: &outputRef,
	}); err != nil {
		// The watchdog won the terminal race. The record never learned the
		// output ref, so nothing else can reclaim the blob; drop it here.
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("scheduler: completion rejected")
		if delErr := s.blobs.Delete(ctx, outputRef); delErr != nil {
			s.logger.Warn().Err(delErr).Str("ref", outputRef).Msg("scheduler: orphaned output cleanup failed")
		}
		s.releaseInput(ctx, job.InputRef)
		return
	}
	s.releaseInput(ctx, job.InputRef)
	s.logger.Info().Str("job_id", jobID).Str("output_ref", outputRef).Msg("scheduler: job complete")
}

// runStage invokes the engine under the per-stage deadline. A deadline hit is
// reported as a timeout-kind failure.
func (s *Scheduler) runStage(ctx context.Context, stage domain.Stage, inputPath, outputPath string) error {
	stageCtx, cancel := context.WithTimeout(ctx, s.cfg.StageTimeout)
	defer cancel()
	err := s.engine.Run(stageCtx, stage, inputPath, outputPath)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("stage %s timed out after %s", stage.Kind, s.cfg.StageTimeout)
	}
	return fmt.Errorf("stage %s failed: %w", stage.Kind, err)
}

func (s *Scheduler) fetchInput(ctx context.Context, inputRef, destPath string) error {
	rc, _, err := s.blobs.Open(ctx, inputRef)
	if err != nil {
		return err
	}
	defer rc.Close()
	f, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.ReadFrom(rc); err != nil {
		return err
	}
	return f.Close()
}

func (s *Scheduler) commitOutput(ctx context.Context, jobID, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return s.blobs.Put(ctx, "outputs/"+jobID+".mp4", f)
}

// fail records a processing failure on the job. Losing the transition race
// to the watchdog is fine; the job is terminal either way.
func (s *Scheduler) fail(ctx context.Context, jobID, detail string) {
	s.logger.Error().Str("job_id", jobID).Str("detail", detail).Msg("scheduler: job failed")
	job, err := s.store.Update(ctx, jobID, domain.JobUpdate{
		Status:       statusPtr(domain.JobStatusError),
		ErrorMessage: &detail,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("scheduler: failure update rejected")
		return
	}
	s.releaseInput(ctx, job.InputRef)
}

func (s *Scheduler) releaseInput(ctx context.Context, inputRef string) {
	if inputRef == "" {
		return
	}
	if err := s.blobs.Delete(ctx, inputRef); err != nil {
		s.logger.Warn().Err(err).Str("ref", inputRef).Msg("scheduler: release input failed")
	}
}

// watchdogLoop force-fails jobs that stopped advancing, so a crashed or
// wedged worker never leaves a job stuck in processing.
func (s *Scheduler) watchdogLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.WatchdogInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.reapStale(ctx)
		}
	}
}

func (s *Scheduler) reapStale(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.cfg.LivenessWindow)
	stale, err := s.store.ListStale(ctx, cutoff)
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduler: watchdog list failed")
		return
	}
	for _, job := range stale {
		detail := fmt.Sprintf("liveness timeout: no progress within %s", s.cfg.LivenessWindow)
		if _, err := s.store.Update(ctx, job.ID, domain.JobUpdate{
			Status:       statusPtr(domain.JobStatusError),
			ErrorMessage: &detail,
		}); err != nil {
			// The worker may have finished between the list and the update.
			s.logger.Debug().Err(err).Str("job_id", job.ID).Msg("scheduler: watchdog lost race")
			continue
		}
		s.logger.Warn().Str("job_id", job.ID).Msg("scheduler: job force-failed by watchdog")
	}
}

// sweeperLoop evicts terminal jobs past the retention window along with
// their blobs.
func (s *Scheduler) sweeperLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweepExpired(ctx)
		}
	}
}

func (s *Scheduler) sweepExpired(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.cfg.Retention)
	expired, err := s.store.ListExpired(ctx, cutoff)
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduler: sweep list failed")
		return
	}
	for _, job := range expired {
		if job.OutputRef != "" {
			if err := s.blobs.Delete(ctx, job.OutputRef); err != nil {
				s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("scheduler: sweep output failed")
			}
		}
		s.releaseInput(ctx, job.InputRef)
		if err := s.store.Delete(ctx, job.ID); err != nil {
			s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("scheduler: sweep record failed")
			continue
		}
		s.logger.Info().Str("job_id", job.ID).Msg("scheduler: job evicted")
	}
}

func roundProgress(done, total int) int {
	return int(math.Round(100 * float64(done) / float64(total)))
}

func statusPtr(s domain.JobStatus) *domain.JobStatus { return &s }
func intPtr(i int) *int                              { return &i }
