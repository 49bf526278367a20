package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/site-reconciliation-service/internal/domain"
)

// SnapshotProvider returns the latest reconciliation report, or nil before
// the first successful refresh.
type SnapshotProvider interface {
	Snapshot() *domain.Report
}

// Server exposes health, readiness, metrics, and the dashboard read API.
type Server struct {
	httpServer *http.Server
	reports    SnapshotProvider
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and the
// /api/v1 dashboard routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, reports SnapshotProvider, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		reports: reports,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/summary", s.withReport(func(r *domain.Report, _ *http.Request) (any, error) {
		return r.Summary, nil
	}))
	mux.HandleFunc("GET /api/v1/records", s.withReport(handleRecords))
	mux.HandleFunc("GET /api/v1/map", s.withReport(func(r *domain.Report, _ *http.Request) (any, error) {
		return r.MapPoints, nil
	}))
	mux.HandleFunc("GET /api/v1/invalid-geometry", s.withReport(func(r *domain.Report, _ *http.Request) (any, error) {
		return r.InvalidGeometry, nil
	}))
	mux.HandleFunc("GET /api/v1/discrepancies", s.withReport(func(r *domain.Report, _ *http.Request) (any, error) {
		return r.Discrepancies, nil
	}))
	mux.HandleFunc("GET /api/v1/correctness", s.withReport(func(r *domain.Report, _ *http.Request) (any, error) {
		return r.Correctness, nil
	}))
	mux.HandleFunc("GET /api/v1/issues", s.withReport(func(r *domain.Report, _ *http.Request) (any, error) {
		return r.Issues, nil
	}))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client gone; nothing left to report
}
