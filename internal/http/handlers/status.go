package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/myrddinforetold-commits/sora-enhancer/internal/domain"
)

type statusResponse struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Step     string `json:"step"`
	Error    string `json:"error,omitempty"`
}

// Status reports the current snapshot of a job to pollers.
func (a *App) Status(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	job, err := a.Store.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("status: lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}
	a.json(w, http.StatusOK, statusResponse{
		Status:   string(job.Status),
		Progress: job.Progress,
		Step:     job.Step,
		Error:    job.ErrorMessage,
	})
}
