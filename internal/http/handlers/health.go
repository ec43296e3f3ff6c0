package handlers

import (
	"errors"
	"net/http"

	"github.com/myrddinforetold-commits/sora-enhancer/internal/domain"
)

// Health reports whether the service can take submissions. The job record
// store is exercised with a lookup so a lost database connection surfaces
// here instead of on the next upload; ErrNotFound is the healthy answer.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	if _, err := a.Store.Get(r.Context(), "healthz"); err != nil && !errors.Is(err, domain.ErrNotFound) {
		a.Logger.Error().Err(err).Msg("healthz: job store unreachable")
		a.error(w, http.StatusServiceUnavailable, "unavailable", "job store unreachable")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
