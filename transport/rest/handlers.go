package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/tictactoe-duel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-duel/internal/entity"
	"github.com/rocketscienceinc/tictactoe-duel/internal/session"
)

type sessionReader interface {
	GetSession(id string) (*session.Session, error)
	StoredSnapshot(ctx context.Context, id string) (*entity.Snapshot, error)
}

type sessionHandlers struct {
	logger   *slog.Logger
	sessions sessionReader
}

func newSessionHandlers(logger *slog.Logger, sessions sessionReader) *sessionHandlers {
	return &sessionHandlers{
		logger:   logger.With("component", "rest"),
		sessions: sessions,
	}
}

// stored serves the snapshot kept in Redis. It outlives the process that ran
// the session until its TTL runs out.
func (that *sessionHandlers) stored(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "stored")
	id := chi.URLParam(r, "id")

	snapshot, err := that.sessions.StoredSnapshot(r.Context(), id)
	if err != nil {
		log.Debug("failed to get stored snapshot", "sessionID", id, "error", err)
		that.writeError(w, err)
		return
	}

	writeJSON(that.logger, w, http.StatusOK, snapshot)
}

func (that *sessionHandlers) live(w http.ResponseWriter, r *http.Request) {
	s, err := that.sessions.GetSession(chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	snapshot := s.Snapshot()
	writeJSON(that.logger, w, http.StatusOK, &snapshot)
}

func (that *sessionHandlers) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, apperror.ErrSessionNotFound) {
		status = http.StatusNotFound
	}

	writeJSON(that.logger, w, status, map[string]string{"error": http.StatusText(status)})
}

func writeJSON(logger *slog.Logger, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to write response", "error", err)
	}
}
