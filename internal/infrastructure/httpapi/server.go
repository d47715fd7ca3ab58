// Package httpapi is the ops surface of the daemon: health, Prometheus
// metrics, sync status and a manual trigger.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"EngagementSync/internal/domain"
	"EngagementSync/internal/gate"
)

// SyncRunner is the part of usecase.Runner the server drives.
type SyncRunner interface {
	TriggerAsync(ctx context.Context) error
	LastResult() (domain.CycleResult, bool)
	Running() bool
}

// CursorReader exposes the last committed sync time.
type CursorReader interface {
	LastSyncTime(ctx context.Context) (time.Time, bool, error)
	Interval() time.Duration
}

// Status is the body of GET /status.
type Status struct {
	LastSyncedAt *time.Time          `json:"last_synced_at"`
	LastSynced   string              `json:"last_synced"`
	Due          bool                `json:"due"`
	Interval     string              `json:"interval"`
	Running      bool                `json:"running"`
	LastResult   *domain.CycleResult `json:"last_result,omitempty"`
}

// Server serves the ops endpoints.
type Server struct {
	runner SyncRunner
	cursor CursorReader
	logger *slog.Logger
	now    func() time.Time
	srv    *http.Server
}

// NewServer builds the server listening on addr.
func NewServer(addr string, runner SyncRunner, cursor CursorReader, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{runner: runner, cursor: cursor, logger: logger, now: time.Now}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Routes returns the chi router with every endpoint mounted.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/status", s.handleStatus)
	r.Post("/sync", s.handleSync)
	return r
}

// ListenAndServe blocks until the server stops. http.ErrServerClosed is not an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("ops server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "listen")
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	last, ok, err := s.cursor.LastSyncTime(r.Context())
	if err != nil {
		s.logger.Error("read sync cursor", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cannot read sync cursor"})
		return
	}

	now := s.now()
	status := Status{
		LastSynced: gate.FormatElapsed(last, ok, now),
		Due:        gate.Due(last, ok, now, s.cursor.Interval()),
		Interval:   s.cursor.Interval().String(),
		Running:    s.runner.Running(),
	}
	if ok {
		status.LastSyncedAt = &last
	}
	if result, found := s.runner.LastResult(); found {
		status.LastResult = &result
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	err := s.runner.TriggerAsync(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, domain.ErrCycleRunning):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case err != nil:
		s.logger.Error("trigger sync", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cannot start sync"})
	default:
		s.logger.Info("manual sync requested", "request_id", middleware.GetReqID(r.Context()))
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
