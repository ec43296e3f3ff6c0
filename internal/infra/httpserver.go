package infra

import (
	"context"
	"net/http"
	"time"
)

// Server wraps http.Server with timeouts sized for multipart video uploads
// and whole-file downloads rather than short JSON exchanges. Headers get a
// fixed short bound; body timeouts come from configuration because they must
// outlast a full transfer of MAX_UPLOAD_MB at the client's bandwidth.
type Server struct {
	srv *http.Server
}

// NewServer builds the service listener from config.
func NewServer(cfg *Config, handler http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		MaxHeaderBytes:    64 << 10,
	}}
}

// Start blocks serving requests until Shutdown or a listener error.
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests, bounded by ctx. Uploads past the drain
// deadline are cut; their jobs were either enqueued already or never created.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
