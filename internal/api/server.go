// Package api exposes the run manager over HTTP, per SPEC_FULL.md §6.1.
// Handlers act on runs only through internal/run.Manager (internal/evolution
// is used only for its HistoryPoint type in watch frames) and translate its
// sentinel errors to status codes by errors.Is, never by string matching.
package api

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalnine/evogen/internal/run"
)

// Server wires run.Manager into a *http.ServeMux.
type Server struct {
	manager *run.Manager
	logger  *slog.Logger
	mux     *http.ServeMux
}

// NewServer builds a Server ready to be used as an http.Handler.
func NewServer(manager *run.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{manager: manager, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

// ServeHTTP logs method, path, status, and duration for every request at
// info (SPEC_FULL.md §7) before delegating to the route mux.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.logger.Info("request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", rec.status,
		"duration", time.Since(start),
	)
}

// statusRecorder captures the status code a handler writes so ServeHTTP can
// log it after the fact. It forwards Hijack so the /watch websocket upgrade
// still works through the logging wrapper.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("api: underlying ResponseWriter does not support hijacking")
	}
	return hj.Hijack()
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("POST /runs", s.handleCreateRun)
	s.mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	s.mux.HandleFunc("POST /runs/{id}/step", s.handleStepRun)
	s.mux.HandleFunc("POST /runs/{id}/advance", s.handleAdvanceRun)
	s.mux.HandleFunc("GET /runs/{id}/history", s.handleHistory)
	s.mux.HandleFunc("GET /runs/{id}/watch", s.handleWatch)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponseDTO{Status: "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Default().Error("failed to encode response", "error", err)
	}
}

// writeError writes the exact client-facing message, never an internal
// error's wrapped detail (see clientError in handlers.go).
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponseDTO{Error: message})
}
