package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/tictactoe-duel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-duel/internal/entity"
)

var heartbeatInterval = 15 * time.Second

// turnReader reads the turns networked sessions publish to Redis.
type turnReader interface {
	LastTurn(ctx context.Context, sessionID string) (entity.Mark, error)
	SubscribeTurns(ctx context.Context, sessionID string) (<-chan entity.Mark, error)
}

type turnResponse struct {
	SessionID string      `json:"session_id"`
	Turn      entity.Mark `json:"turn"`
}

type turnHandlers struct {
	logger *slog.Logger
	turns  turnReader
}

func newTurnHandlers(logger *slog.Logger, turns turnReader) *turnHandlers {
	return &turnHandlers{
		logger: logger.With("component", "rest"),
		turns:  turns,
	}
}

func (that *turnHandlers) last(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	turn, err := that.turns.LastTurn(r.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, apperror.ErrNoTurn) {
			status = http.StatusNotFound
		} else {
			that.logger.Error("failed to read turn", "sessionID", id, "error", err)
		}

		writeJSON(that.logger, w, status, map[string]string{"error": http.StatusText(status)})
		return
	}

	writeJSON(that.logger, w, http.StatusOK, turnResponse{SessionID: id, Turn: turn})
}

// stream follows the published turns of a session as server-sent events.
func (that *turnHandlers) stream(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "stream")
	id := chi.URLParam(r, "id")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()

	turns, err := that.turns.SubscribeTurns(ctx, id)
	if err != nil {
		log.Error("failed to subscribe to turns", "sessionID", id, "error", err)
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}

	// the stream outlives the server's write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case turn, ok := <-turns:
			if !ok {
				return
			}

			_, _ = fmt.Fprintf(w, "event: turn\ndata: %s\n\n", turn.String())
			flusher.Flush()
		}
	}
}
