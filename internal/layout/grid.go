// Package layout maps board coordinates to positions on screen and back.
package layout

import (
	"math"

	"github.com/rocketscienceinc/tictactoe-duel/internal/entity"
)

const DefaultCellSize = 1.0

// Position is a point in world space. The origin is the center of the middle
// cell and Y grows upwards.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Translator interface {
	ToWorld(c entity.Coord) Position
	ToCoord(p Position) (entity.Coord, bool)
}

// Grid is a square grid of CellSize wide cells.
type Grid struct {
	CellSize float64
}

func NewGrid(cellSize float64) Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}

	return Grid{CellSize: cellSize}
}

// ToWorld returns the center of the cell. Row 0 is the top row.
func (that Grid) ToWorld(c entity.Coord) Position {
	return Position{
		X: float64(c.Col-1) * that.CellSize,
		Y: float64(1-c.Row) * that.CellSize,
	}
}

// ToCoord returns the cell under p, or false when p is outside the board.
func (that Grid) ToCoord(p Position) (entity.Coord, bool) {
	c := entity.Coord{
		Col: int(math.Round(p.X/that.CellSize)) + 1,
		Row: 1 - int(math.Round(p.Y/that.CellSize)),
	}

	if !c.Valid() {
		return entity.Coord{}, false
	}

	return c, true
}
