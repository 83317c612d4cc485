package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/ignite/commerce-ingest/internal/config"
)

// writeTimeout bounds one response. Amazon cron-daily in test mode is the
// slowest route; its backfill budget is kept below this.
const writeTimeout = 75 * time.Minute

// Server represents the API server
type Server struct {
	config  config.ServerConfig
	handler http.Handler
	server  *http.Server
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, h *Handlers, hc *HealthChecker) *Server {
	handler := SetupRoutes(h, hc, cfg.CORSOrigins)
	return &Server{
		config:  cfg,
		handler: handler,
		server: &http.Server{
			Handler: handler,
			// Amazon cron-daily blocks while the report is polled, and uploads
			// can be large workbooks.
			ReadTimeout:       5 * time.Minute,
			ReadHeaderTimeout: 15 * time.Second,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.server.Serve(ln)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.handler
}
