// Package handlers holds the HTTP surface: submission, status polling, and
// download of the finished artifact. Handlers only touch the job record
// store and blob store; processing happens behind the scheduler.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/myrddinforetold-commits/sora-enhancer/internal/domain"
)

// Enqueuer is the submission service's handle on the scheduler.
type Enqueuer interface {
	Enqueue(jobID string) error
}

// App carries the injected collaborators for all handlers.
type App struct {
	Store          domain.JobStore
	Blobs          domain.BlobStore
	Queue          Enqueuer
	Logger         zerolog.Logger
	MaxUploadBytes int64
}

func NewApp(store domain.JobStore, blobs domain.BlobStore, queue Enqueuer, logger zerolog.Logger, maxUploadBytes int64) *App {
	return &App{Store: store, Blobs: blobs, Queue: queue, Logger: logger, MaxUploadBytes: maxUploadBytes}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]string{"error": errCode, "message": message})
}
