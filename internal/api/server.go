// Package api exposes the health, status and metrics endpoints.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/stocksmart/stockwatch/internal/metrics"
	"github.com/stocksmart/stockwatch/internal/watch"
)

// StatusSource provides the run-state snapshot served by /status.
type StatusSource interface {
	Snapshot() watch.Snapshot
}

// Server serves the operational HTTP surface of the watcher.
type Server struct {
	source StatusSource
	logger *zap.Logger
}

// NewServer constructs a Server.
func NewServer(source StatusSource, logger *zap.Logger) *Server {
	return &Server{
		source: source,
		logger: logger,
	}
}

// Handler returns the routed http.Handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		s.logger.Error("write health response", zap.Error(err))
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.source.Snapshot()); err != nil {
		s.logger.Error("encode status response", zap.Error(err))
	}
}
