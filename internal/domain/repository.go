package domain

import (
	"context"
	"io"
	"time"
)

// JobStore defines persistence for job records. Reads return copies, so a
// concurrent status poll never observes a partially-written record. Update
// rejects terminal jobs with ErrInvalidTransition and never lowers progress.
type JobStore interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	Update(ctx context.Context, id string, upd JobUpdate) (*Job, error)
	// ListQueued returns queued jobs created before cutoff in submission
	// order. With a durable backend these are records that survived a
	// restart; the scheduler re-enqueues them on startup.
	ListQueued(ctx context.Context, cutoff time.Time) ([]Job, error)
	// ListStale returns processing jobs whose last update is older than
	// cutoff; the scheduler's watchdog force-fails them.
	ListStale(ctx context.Context, cutoff time.Time) ([]Job, error)
	// ListExpired returns terminal jobs older than cutoff, eligible for
	// blob and record garbage collection.
	ListExpired(ctx context.Context, cutoff time.Time) ([]Job, error)
	Delete(ctx context.Context, id string) error
}

// BlobStore durably holds uploaded and output files behind opaque refs.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) (ref string, err error)
	Open(ctx context.Context, ref string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, ref string) error
}

// Engine applies one pipeline stage to a local working file, writing the
// result to outputPath. It must be safe to call concurrently for distinct
// jobs and must honor ctx's deadline.
type Engine interface {
	Run(ctx context.Context, stage Stage, inputPath, outputPath string) error
}
