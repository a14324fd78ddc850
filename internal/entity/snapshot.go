package entity

const (
	StatusWaiting  = "waiting"
	StatusOngoing  = "ongoing"
	StatusFinished = "finished"
)

// Mode says how a session's state reaches its participants.
type Mode string

const (
	// ModeLocal sessions pit one human against the computer inside one process.
	ModeLocal Mode = "local"
	// ModeNetworked sessions have two human participants and the server as authority.
	ModeNetworked Mode = "networked"
)

const (
	PrivateType = "private"
	WithBotType = "bot"
)

// ModeForType maps the game type a client asks for to a session mode.
func ModeForType(gameType string) Mode {
	if gameType == WithBotType {
		return ModeLocal
	}

	return ModeNetworked
}

// Snapshot is a read-only copy of a session, safe to serialise and share.
type Snapshot struct {
	ID         string     `json:"id"`
	Mode       Mode       `json:"mode"`
	Status     string     `json:"status"`
	Board      Board      `json:"board"`
	Marks      int        `json:"marks"`
	Turn       Mark       `json:"turn"`
	Score      Score      `json:"score"`
	Result     WinResult  `json:"result"`
	Generation uint64     `json:"generation"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
}

func (that *Snapshot) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Snapshot) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Snapshot) IsWaiting() bool {
	return that.Status == StatusWaiting
}
