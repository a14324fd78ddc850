package session

import "github.com/rocketscienceinc/tictactoe-duel/internal/entity"

type Kind string

const (
	KindGameStarted      Kind = "game:started"
	KindMoveAccepted     Kind = "game:move"
	KindTurnChanged      Kind = "game:turn"
	KindScoresChanged    Kind = "game:scores"
	KindGameEnded        Kind = "game:ended"
	KindWinnerDetermined Kind = "game:winner"
	KindGameRestarted    Kind = "game:restarted"
)

type Move struct {
	Coord  entity.Coord `json:"coord"`
	Player entity.Mark  `json:"player"`
}

// Event is a notification about an accepted change of session state. Only the
// fields relevant to Kind are set. Seq grows by one per event within a session.
type Event struct {
	Kind       Kind              `json:"kind"`
	SessionID  string            `json:"session_id"`
	Generation uint64            `json:"generation"`
	Seq        uint64            `json:"seq"`
	Move       *Move             `json:"move,omitempty"`
	Turn       entity.Mark       `json:"turn"`
	Score      *entity.Score     `json:"score,omitempty"`
	Result     *entity.WinResult `json:"result,omitempty"`
	Winner     entity.Mark       `json:"winner"`
}

type subscriber struct {
	id     uint64
	events chan Event
}
