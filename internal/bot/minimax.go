package bot

import (
	"math"

	"github.com/rocketscienceinc/tictactoe-duel/internal/entity"
)

const winScore = 10

// Minimax is the hard opponent. It searches the whole game tree, which for a
// 3x3 board is small enough to do on every move.
type Minimax struct{}

func NewMinimax() *Minimax {
	return &Minimax{}
}

// SelectMove returns the first cell, scanning column by column, with the best score.
func (that *Minimax) SelectMove(board entity.Board, mark entity.Mark) (entity.Coord, bool) {
	bestScore := math.MinInt
	best := entity.Coord{}
	found := false

	for col := 0; col < entity.BoardSize; col++ {
		for row := 0; row < entity.BoardSize; row++ {
			if board[col][row] != entity.None {
				continue
			}

			board[col][row] = mark
			score := minimax(&board, 0, false, mark)
			board[col][row] = entity.None

			if score > bestScore {
				bestScore = score
				best = entity.Coord{Col: col, Row: row}
				found = true
			}
		}
	}

	return best, found
}

// Score evaluates the position for mark assuming mark has just moved.
func (that *Minimax) Score(board entity.Board, mark entity.Mark) int {
	return minimax(&board, 0, false, mark)
}

func minimax(board *entity.Board, depth int, maximizing bool, mark entity.Mark) int {
	switch winner := board.Winner().Winner; {
	case winner == mark:
		return winScore - depth
	case winner != entity.None:
		return depth - winScore
	case board.IsFull():
		return 0
	}

	current := mark
	best := math.MinInt
	if !maximizing {
		current = mark.Opponent()
		best = math.MaxInt
	}

	for col := 0; col < entity.BoardSize; col++ {
		for row := 0; row < entity.BoardSize; row++ {
			if board[col][row] != entity.None {
				continue
			}

			board[col][row] = current
			score := minimax(board, depth+1, !maximizing, mark)
			board[col][row] = entity.None

			if maximizing {
				best = max(best, score)
			} else {
				best = min(best, score)
			}
		}
	}

	return best
}
