package entity

// Player is a participant known to the server.
type Player struct {
	ID        string `json:"id"`
	Mark      Mark   `json:"mark,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

func (that *Player) InSession() bool {
	return that.SessionID != ""
}

func (that *Player) Leave() {
	that.SessionID = ""
	that.Mark = None
}
