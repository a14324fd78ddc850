package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-duel/internal/entity"
	"github.com/rocketscienceinc/tictactoe-duel/internal/layout"
	"github.com/rocketscienceinc/tictactoe-duel/internal/session"
)

const (
	actionConnect  = "connect"
	actionNewGame  = "game:new"
	actionJoinGame = "game:join"
	actionTurn     = "game:turn"
	actionRestart  = "game:restart"
	actionState    = "game:state"
	actionLeave    = "game:leave"
	actionEvent    = "game:event"
	actionClosed   = "game:closed"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	// ID is optional; for game:turn it identifies the move so that a resent
	// message is applied once.
	ID      string          `json:"id,omitempty"`
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	Player  *entity.Player   `json:"player,omitempty"`
	Session *entity.Snapshot `json:"session,omitempty"`
	Event   *EventPayload    `json:"event,omitempty"`
	Error   string           `json:"error,omitempty"`

	// game:new
	Type       string            `json:"type,omitempty"`
	Difficulty entity.Difficulty `json:"difficulty,omitempty"`

	// game:join
	SessionID string `json:"session_id,omitempty"`

	// game:turn takes either a cell or a world position
	Cell       *entity.Coord    `json:"cell,omitempty"`
	Position   *layout.Position `json:"position,omitempty"`
	Generation uint64           `json:"generation,omitempty"`
}

// EventPayload is a session event with the board positions translated to world space.
type EventPayload struct {
	session.Event

	Position     *layout.Position `json:"position,omitempty"`
	LinePosition *layout.Position `json:"line_position,omitempty"`
}

func newMessage(action string, payload Payload) (Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return Message{Action: action, Payload: body}, nil
}

func (that *Server) eventPayload(event session.Event) *EventPayload {
	payload := &EventPayload{Event: event}

	if event.Move != nil {
		position := that.translator.ToWorld(event.Move.Coord)
		payload.Position = &position
	}

	if event.Result != nil && event.Result.IsDecisive() {
		position := that.translator.ToWorld(event.Result.Center)
		payload.LinePosition = &position
	}

	return payload
}
