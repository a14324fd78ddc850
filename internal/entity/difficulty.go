package entity

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/tictactoe-duel/internal/apperror"
)

type Difficulty uint8

const (
	DifficultyNone Difficulty = iota
	EasyDifficulty
	MediumDifficulty
	HardDifficulty
)

func (that Difficulty) String() string {
	switch that {
	case EasyDifficulty:
		return "easy"
	case MediumDifficulty:
		return "medium"
	case HardDifficulty:
		return "hard"
	default:
		return ""
	}
}

func ParseDifficulty(value string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "easy":
		return EasyDifficulty, nil
	case "medium":
		return MediumDifficulty, nil
	case "hard":
		return HardDifficulty, nil
	case "":
		return DifficultyNone, nil
	default:
		return DifficultyNone, fmt.Errorf("%w: %q", apperror.ErrUnknownDifficulty, value)
	}
}

func (that Difficulty) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *Difficulty) UnmarshalText(text []byte) error {
	parsed, err := ParseDifficulty(string(text))
	if err != nil {
		return err
	}

	*that = parsed

	return nil
}
