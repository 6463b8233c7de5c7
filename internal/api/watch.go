package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/signalnine/evogen/internal/evolution"
	"github.com/signalnine/evogen/internal/run"
)

// watchPollInterval is how often handleWatch checks the run for a new
// generation. There is no push channel from run.Manager, so the watch
// stream is poll-driven rather than event-driven — acceptable here since
// a generation only advances in response to an explicit step/advance call
// from some other client.
const watchPollInterval = 250 * time.Millisecond

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWatch upgrades the connection and, on each poll, writes one frame
// for the run's current generation if it differs from the last one sent
// (the first poll always sends one). Generations that complete between two
// polls are not sent individually. Streaming ends when the run completes,
// a frame write fails, or the run id is unknown; nothing is read from the
// client, so a disconnect is noticed only at the next write.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")

	if _, err := s.manager.Get(runID); err != nil {
		status, msg := clientError(err)
		writeError(w, status, msg)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("watch upgrade failed", "run_id", runID, "error", err)
		return
	}
	defer conn.Close()

	s.streamWatch(conn, runID)
}

func (s *Server) streamWatch(conn *websocket.Conn, runID string) {
	ticker := time.NewTicker(watchPollInterval)
	defer ticker.Stop()

	lastGeneration := -1
	for range ticker.C {
		snap, err := s.manager.Get(runID)
		if err != nil {
			if !errors.Is(err, run.ErrUnknownRun) {
				s.logger.Warn("watch poll failed", "run_id", runID, "error", err)
			}
			return
		}

		if snap.Generation != lastGeneration {
			lastGeneration = snap.Generation
			point := evolution.HistoryPoint{Generation: snap.Generation, BestFitness: snap.BestFitness}
			if err := conn.WriteJSON(toWatchFrame(point)); err != nil {
				return
			}
		}

		if snap.Status == run.StatusCompleted {
			return
		}
	}
}
