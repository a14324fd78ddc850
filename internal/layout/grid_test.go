package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rocketscienceinc/tictactoe-duel/internal/entity"
)

func TestGrid_ToWorld(t *testing.T) {
	grid := NewGrid(2)

	assert.Equal(t, Position{X: 0, Y: 0}, grid.ToWorld(entity.Coord{Col: 1, Row: 1}))
	assert.Equal(t, Position{X: -2, Y: 2}, grid.ToWorld(entity.Coord{Col: 0, Row: 0}))
	assert.Equal(t, Position{X: 2, Y: -2}, grid.ToWorld(entity.Coord{Col: 2, Row: 2}))
}

func TestGrid_ToCoord(t *testing.T) {
	grid := NewGrid(2)

	t.Run("Round trips every cell", func(t *testing.T) {
		var board entity.Board
		for _, c := range board.EmptyCells() {
			got, ok := grid.ToCoord(grid.ToWorld(c))

			assert.True(t, ok)
			assert.Equal(t, c, got)
		}
	})

	t.Run("Snaps a click to the nearest cell", func(t *testing.T) {
		got, ok := grid.ToCoord(Position{X: 1.4, Y: -2.6})

		assert.True(t, ok)
		assert.Equal(t, entity.Coord{Col: 2, Row: 2}, got)
	})

	t.Run("Rejects clicks outside the board", func(t *testing.T) {
		_, ok := grid.ToCoord(Position{X: 5, Y: 0})

		assert.False(t, ok)
	})
}

func TestNewGrid_DefaultsCellSize(t *testing.T) {
	assert.InDelta(t, DefaultCellSize, NewGrid(0).CellSize, 1e-9)
}
