package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/myrddinforetold-commits/sora-enhancer/internal/domain"
)

// Download streams the finished artifact. Anything short of complete is a
// conflict; a missing or evicted output is not found.
func (a *App) Download(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	job, err := a.Store.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("download: lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}
	if job.Status == domain.JobStatusError {
		// A failed job has no output and never will.
		a.error(w, http.StatusNotFound, "not_found", "job failed, no output exists")
		return
	}
	if job.Status != domain.JobStatusComplete {
		a.error(w, http.StatusConflict, "conflict", domain.ErrConflict.Error())
		return
	}

	rc, size, err := a.Blobs.Open(r.Context(), job.OutputRef)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "output no longer available")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("download: open output failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to open output")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set("Content-Disposition", `attachment; filename="enhanced_video.mp4"`)
	if _, err := io.Copy(w, rc); err != nil {
		a.Logger.Warn().Err(err).Str("job_id", jobID).Msg("download: stream interrupted")
	}
}
