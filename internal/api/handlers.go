package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/signalnine/evogen/internal/run"
)

// clientError maps a run package sentinel error to the HTTP status and the
// exact client-facing message spec.md §6.1/§8 mandates (e.g. "unknown run"
// for ErrUnknownRun). Matching is always by errors.Is, never string
// comparison, so a wrapped sentinel still resolves correctly. The wrapped
// internal detail (validation specifics, the run id, transport errors) is
// never echoed back to the client — only logged server-side.
func clientError(err error) (int, string) {
	switch {
	case errors.Is(err, run.ErrInvalidConfig):
		return http.StatusBadRequest, "invalid config"
	case errors.Is(err, run.ErrBadArgument):
		return http.StatusBadRequest, "bad argument"
	case errors.Is(err, run.ErrUnknownRun):
		return http.StatusNotFound, "unknown run"
	case errors.Is(err, run.ErrFitnessUnavailable):
		return http.StatusBadGateway, "fitness evaluator unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var dto runConfigDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.manager.Create(r.Context(), dto.toRunConfig())
	if err != nil {
		s.logger.Warn("run creation failed", "error", err)
		status, msg := clientError(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, createRunResponseDTO{RunID: id})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	snap, err := s.manager.Get(r.PathValue("id"))
	if err != nil {
		status, msg := clientError(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, toRunStateDTO(snap))
}

func (s *Server) handleStepRun(w http.ResponseWriter, r *http.Request) {
	snap, err := s.manager.Step(r.Context(), r.PathValue("id"))
	if err != nil {
		status, msg := clientError(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, toRunStateDTO(snap))
}

func (s *Server) handleAdvanceRun(w http.ResponseWriter, r *http.Request) {
	var dto advanceRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, err := s.manager.Advance(r.Context(), r.PathValue("id"), dto.Steps)
	if err != nil {
		status, msg := clientError(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, toRunStateDTO(snap))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	hist, err := s.manager.History(r.PathValue("id"))
	if err != nil {
		status, msg := clientError(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, toHistoryDTO(hist))
}
