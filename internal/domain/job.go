package domain

import "time"

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusComplete   JobStatus = "complete"
	JobStatusError      JobStatus = "error"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusComplete || s == JobStatusError
}

// Job encapsulates the lifecycle of one enhancement request. The submission
// service writes it exactly once at creation; afterwards only the scheduler
// mutates it, and status reads always observe a copied snapshot.
type Job struct {
	ID           string
	Status       JobStatus
	Progress     int
	Step         string
	Options      Options
	InputRef     string
	OutputRef    string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// JobUpdate describes a partial mutation applied to a non-terminal job.
// Nil fields are left untouched; a store applies the whole set atomically.
type JobUpdate struct {
	Status       *JobStatus
	Progress     *int
	Step         *string
	OutputRef    *string
	ErrorMessage *string
}
