// Package http exposes the service's HTTP surface: health, readiness,
// Prometheus metrics, and the manual test-push endpoint.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dorjecito/thermosafe-sub000/internal/domain"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// PushTester dispatches a one-off notification for a single token, outside
// the scheduled pipeline.
type PushTester interface {
	TestPush(ctx context.Context, token string, family domain.HazardFamily) error
}

// Server exposes health, readiness, metrics, and test-push HTTP endpoints.
type Server struct {
	httpServer *http.Server
	tester     PushTester
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /api/test-push routes.
func NewServer(addr string, ready ReadinessChecker, tester PushTester, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		tester: tester,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/test-push", s.handleTestPush)
	mux.HandleFunc("OPTIONS /api/test-push", handlePreflight)

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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// handleTestPush fires a real push to the subscription identified by the
// token query parameter. The optional type parameter selects the hazard
// family and defaults to heat. The endpoint is browser-called from the
// subscription page, so responses carry permissive CORS headers.
func (s *Server) handleTestPush(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)

	token := r.URL.Query().Get("token")
	if token == "" {
		writeJSON(w, http.StatusBadRequest, testPushResponse{Error: "missing token parameter"})
		return
	}

	family, ok := domain.ParseHazardFamily(r.URL.Query().Get("type"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, testPushResponse{Error: "unknown hazard type"})
		return
	}

	if err := s.tester.TestPush(r.Context(), token, family); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrNotFound) {
			status = http.StatusNotFound
		}
		s.logger.Warn("test push failed",
			"token", domain.TokenDigest(token), "hazard", family, "error", err)
		writeJSON(w, status, testPushResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, testPushResponse{OK: true})
}

func handlePreflight(w http.ResponseWriter, _ *http.Request) {
	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

type testPushResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort JSON response
}
