// Package bot holds the computer opponents. Selectors only read the board;
// callers apply the chosen move themselves.
package bot

import (
	"fmt"
	"math/rand/v2"

	"github.com/rocketscienceinc/tictactoe-duel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-duel/internal/entity"
)

// DefaultRandomPlayOdds makes the heuristic opponent play randomly once in five moves.
const DefaultRandomPlayOdds = 5

// MoveSelector picks a cell for mark. ok is false when the board has no empty cell.
type MoveSelector interface {
	SelectMove(board entity.Board, mark entity.Mark) (move entity.Coord, ok bool)
}

type Options struct {
	// RandomPlayOdds is n in the 1/n chance of the heuristic opponent ignoring its rules.
	RandomPlayOdds int
}

// New returns the selector for a difficulty level. rng is not safe for concurrent
// use, so callers must serialise SelectMove calls that share it.
func New(difficulty entity.Difficulty, rng *rand.Rand, opts Options) (MoveSelector, error) {
	if rng == nil {
		rng = NewRand()
	}

	switch difficulty {
	case entity.EasyDifficulty:
		return NewRandom(rng), nil
	case entity.MediumDifficulty:
		return NewHeuristic(rng, opts.RandomPlayOdds), nil
	case entity.HardDifficulty:
		return NewMinimax(), nil
	default:
		return nil, fmt.Errorf("%w: %q", apperror.ErrUnknownDifficulty, difficulty)
	}
}

// NewRand returns a randomly seeded generator.
func NewRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint: gosec // game randomness
}

// Random is the easy opponent.
type Random struct {
	rng *rand.Rand
}

func NewRandom(rng *rand.Rand) *Random {
	return &Random{rng: rng}
}

func (that *Random) SelectMove(board entity.Board, _ entity.Mark) (entity.Coord, bool) {
	return randomCell(&board, that.rng)
}

func randomCell(board *entity.Board, rng *rand.Rand) (entity.Coord, bool) {
	cells := board.EmptyCells()
	if len(cells) == 0 {
		return entity.Coord{}, false
	}

	return cells[rng.IntN(len(cells))], true
}
