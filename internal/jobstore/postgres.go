package jobstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/myrddinforetold-commits/sora-enhancer/internal/domain"
)

// Postgres backs the job record store with PostgreSQL so records survive
// process restarts. Selected when DATABASE_URL is configured.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a store backed by the given pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the jobs table when it does not exist yet.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS jobs (
    id               TEXT PRIMARY KEY,
    status           TEXT NOT NULL,
    progress         INT NOT NULL DEFAULT 0,
    step             TEXT NOT NULL DEFAULT '',
    remove_watermark BOOLEAN NOT NULL,
    enhance_video    BOOLEAN NOT NULL,
    enhance_audio    BOOLEAN NOT NULL,
    video_preset     TEXT NOT NULL,
    audio_preset     TEXT NOT NULL,
    input_ref        TEXT NOT NULL DEFAULT '',
    output_ref       TEXT NOT NULL DEFAULT '',
    error_message    TEXT NOT NULL DEFAULT '',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`)
	if err != nil {
		return fmt.Errorf("jobstore: ensure schema: %w", err)
	}
	return nil
}

const jobColumns = `id, status, progress, step, remove_watermark, enhance_video, enhance_audio,
video_preset, audio_preset, input_ref, output_ref, error_message, created_at, updated_at`

// Create inserts a new job record.
func (p *Postgres) Create(ctx context.Context, job *domain.Job) error {
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	query := `
INSERT INTO jobs (id, status, progress, step, remove_watermark, enhance_video, enhance_audio,
                  video_preset, audio_preset, input_ref, output_ref, error_message, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
`
	_, err := p.pool.Exec(ctx, query,
		job.ID,
		job.Status,
		job.Progress,
		job.Step,
		job.Options.RemoveWatermark,
		job.Options.EnhanceVideo,
		job.Options.EnhanceAudio,
		job.Options.VideoPreset,
		job.Options.AudioPreset,
		job.InputRef,
		job.OutputRef,
		job.ErrorMessage,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("jobstore: insert job: %w", err)
	}
	return nil
}

// Get fetches a job snapshot by id.
func (p *Postgres) Get(ctx context.Context, id string) (*domain.Job, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1;`, id)
	return scanJob(row)
}

// Update applies a partial mutation guarded in SQL: terminal rows never
// match, and GREATEST keeps progress monotone.
func (p *Postgres) Update(ctx context.Context, id string, upd domain.JobUpdate) (*domain.Job, error) {
	query := `
UPDATE jobs
SET status        = COALESCE($2, status),
    progress      = GREATEST(progress, COALESCE($3, progress)),
    step          = COALESCE($4, step),
    output_ref    = COALESCE($5, output_ref),
    error_message = COALESCE($6, error_message),
    updated_at    = NOW()
WHERE id = $1 AND status NOT IN ('complete', 'error')
RETURNING ` + jobColumns + `;`
	row := p.pool.QueryRow(ctx, query, id, upd.Status, upd.Progress, upd.Step, upd.OutputRef, upd.ErrorMessage)
	job, err := scanJob(row)
	if errors.Is(err, domain.ErrNotFound) {
		// Distinguish a missing row from a terminal one.
		if _, getErr := p.Get(ctx, id); getErr == nil {
			return nil, fmt.Errorf("jobstore: %w: %s", domain.ErrInvalidTransition, id)
		}
		return nil, domain.ErrNotFound
	}
	return job, err
}

// ListQueued returns queued jobs created before cutoff in submission order.
func (p *Postgres) ListQueued(ctx context.Context, cutoff time.Time) ([]domain.Job, error) {
	return p.list(ctx, `SELECT `+jobColumns+` FROM jobs WHERE status = 'queued' AND created_at < $1 ORDER BY created_at;`, cutoff)
}

// ListStale returns processing jobs not updated since cutoff.
func (p *Postgres) ListStale(ctx context.Context, cutoff time.Time) ([]domain.Job, error) {
	return p.list(ctx, `SELECT `+jobColumns+` FROM jobs WHERE status = 'processing' AND updated_at < $1;`, cutoff)
}

// ListExpired returns terminal jobs older than cutoff.
func (p *Postgres) ListExpired(ctx context.Context, cutoff time.Time) ([]domain.Job, error) {
	return p.list(ctx, `SELECT `+jobColumns+` FROM jobs WHERE status IN ('complete', 'error') AND updated_at < $1;`, cutoff)
}

// Delete removes a record by id.
func (p *Postgres) Delete(ctx context.Context, id string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1;`, id); err != nil {
		return fmt.Errorf("jobstore: delete job: %w", err)
	}
	return nil
}

func (p *Postgres) list(ctx context.Context, query string, cutoff time.Time) ([]domain.Job, error) {
	rows, err := p.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("jobstore: list jobs: %w", err)
	}
	defer rows.Close()
	var out []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *job)
	}
	return out, rows.Err()
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	if err := row.Scan(
		&job.ID,
		&job.Status,
		&job.Progress,
		&job.Step,
		&job.Options.RemoveWatermark,
		&job.Options.EnhanceVideo,
		&job.Options.EnhanceAudio,
		&job.Options.VideoPreset,
		&job.Options.AudioPreset,
		&job.InputRef,
		&job.OutputRef,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("jobstore: scan job: %w", err)
	}
	return &job, nil
}
