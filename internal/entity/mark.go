package entity

import "fmt"

// Mark is the occupant of a cell and also names whose turn it is.
type Mark uint8

const (
	None Mark = iota
	Cross
	Circle
)

func (that Mark) String() string {
	switch that {
	case Cross:
		return "X"
	case Circle:
		return "O"
	default:
		return ""
	}
}

// Opponent returns the other player. None has no opponent.
func (that Mark) Opponent() Mark {
	switch that {
	case Cross:
		return Circle
	case Circle:
		return Cross
	default:
		return None
	}
}

func (that Mark) IsPlayer() bool {
	return that == Cross || that == Circle
}

func (that Mark) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *Mark) UnmarshalText(text []byte) error {
	switch string(text) {
	case "X", "x":
		*that = Cross
	case "O", "o":
		*that = Circle
	case "":
		*that = None
	default:
		return fmt.Errorf("unknown mark %q", text)
	}

	return nil
}

// Score counts decisive wins per player.
type Score struct {
	Cross  int `json:"cross"`
	Circle int `json:"circle"`
}

func (that *Score) Add(winner Mark) bool {
	switch winner {
	case Cross:
		that.Cross++
	case Circle:
		that.Circle++
	default:
		return false
	}

	return true
}
