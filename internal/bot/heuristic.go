package bot

import (
	"math/rand/v2"

	"github.com/rocketscienceinc/tictactoe-duel/internal/entity"
)

var corners = [4]entity.Coord{
	{Col: 0, Row: 0},
	{Col: 2, Row: 0},
	{Col: 0, Row: 2},
	{Col: 2, Row: 2},
}

// Heuristic is the medium opponent: win, block, center, corner, anything.
type Heuristic struct {
	rng  *rand.Rand
	odds int
}

func NewHeuristic(rng *rand.Rand, randomPlayOdds int) *Heuristic {
	if randomPlayOdds <= 0 {
		randomPlayOdds = DefaultRandomPlayOdds
	}

	return &Heuristic{rng: rng, odds: randomPlayOdds}
}

func (that *Heuristic) SelectMove(board entity.Board, mark entity.Mark) (entity.Coord, bool) {
	if that.rng.IntN(that.odds) == 0 {
		return randomCell(&board, that.rng)
	}

	return SelectByRules(&board, mark)
}

// SelectByRules applies the heuristic without the random branch.
func SelectByRules(board *entity.Board, mark entity.Mark) (entity.Coord, bool) {
	if move, ok := FindCompletingMove(board, mark); ok {
		return move, true
	}

	if move, ok := FindCompletingMove(board, mark.Opponent()); ok {
		return move, true
	}

	center := entity.Coord{Col: 1, Row: 1}
	if board.At(center) == entity.None {
		return center, true
	}

	for _, corner := range corners {
		if board.At(corner) == entity.None {
			return corner, true
		}
	}

	cells := board.EmptyCells()
	if len(cells) == 0 {
		return entity.Coord{}, false
	}

	return cells[0], true
}

// FindCompletingMove returns the empty cell of the first line (rows, columns,
// main diagonal, anti diagonal) that holds exactly two marks of mark.
func FindCompletingMove(board *entity.Board, mark entity.Mark) (entity.Coord, bool) {
	for _, line := range scanLines {
		count := 0
		empty := entity.Coord{Col: -1, Row: -1}

		for _, c := range line {
			switch board.At(c) {
			case mark:
				count++
			case entity.None:
				empty = c
			}
		}

		if count == 2 && empty.Valid() {
			return empty, true
		}
	}

	return entity.Coord{}, false
}

var scanLines = buildScanLines()

func buildScanLines() [][3]entity.Coord {
	lines := make([][3]entity.Coord, 0, 8)

	for row := 0; row < entity.BoardSize; row++ {
		lines = append(lines, [3]entity.Coord{{Col: 0, Row: row}, {Col: 1, Row: row}, {Col: 2, Row: row}})
	}

	for col := 0; col < entity.BoardSize; col++ {
		lines = append(lines, [3]entity.Coord{{Col: col, Row: 0}, {Col: col, Row: 1}, {Col: col, Row: 2}})
	}

	lines = append(lines,
		[3]entity.Coord{{Col: 0, Row: 0}, {Col: 1, Row: 1}, {Col: 2, Row: 2}},
		[3]entity.Coord{{Col: 0, Row: 2}, {Col: 1, Row: 1}, {Col: 2, Row: 0}},
	)

	return lines
}
