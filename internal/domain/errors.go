package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("job not complete")
	ErrInvalidTransition = errors.New("job already terminal")
	ErrDuplicateJob      = errors.New("job id already exists")
	ErrQueueFull         = errors.New("work queue full")
)
