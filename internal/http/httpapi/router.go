package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/myrddinforetold-commits/sora-enhancer/internal/http/handlers"
	"github.com/myrddinforetold-commits/sora-enhancer/internal/middleware"
)

// NewRouter assembles the HTTP surface around the app container.
func NewRouter(app *handlers.App, logger zerolog.Logger, rateLimitPerMin int) http.Handler {
	r := chi.NewRouter()
	r.Use(
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Access(logger),
	)

	r.Get("/", app.Index)
	r.Get("/v1/healthz", app.Health)

	r.Group(func(r chi.Router) {
		if rateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(rateLimitPerMin, time.Minute))
		}
		r.Post("/enhance", app.Enhance)
	})

	r.Get("/status/{job_id}", app.Status)
	r.Get("/download/{job_id}", app.Download)

	return r
}
