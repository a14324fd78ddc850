package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-duel/internal/apperror"
)

const BoardSize = 3

// Coord addresses a cell. Col 0 is the left column, Row 0 the top row.
type Coord struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

func (that Coord) Valid() bool {
	return that.Col >= 0 && that.Col < BoardSize && that.Row >= 0 && that.Row < BoardSize
}

func (that Coord) String() string {
	return fmt.Sprintf("(%d,%d)", that.Col, that.Row)
}

// Board is indexed [col][row].
type Board [BoardSize][BoardSize]Mark

func (that *Board) At(c Coord) Mark {
	return that[c.Col][c.Row]
}

// Apply places mark on an empty cell.
func (that *Board) Apply(c Coord, mark Mark) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %s", apperror.ErrInvalidCell, c)
	}

	if that[c.Col][c.Row] != None {
		return apperror.ErrCellOccupied
	}

	that[c.Col][c.Row] = mark

	return nil
}

func (that *Board) Count() int {
	count := 0
	for col := 0; col < BoardSize; col++ {
		for row := 0; row < BoardSize; row++ {
			if that[col][row] != None {
				count++
			}
		}
	}

	return count
}

func (that *Board) IsFull() bool {
	return that.Count() == BoardSize*BoardSize
}

// EmptyCells lists free cells column by column.
func (that *Board) EmptyCells() []Coord {
	cells := make([]Coord, 0, BoardSize*BoardSize)
	for col := 0; col < BoardSize; col++ {
		for row := 0; row < BoardSize; row++ {
			if that[col][row] == None {
				cells = append(cells, Coord{Col: col, Row: row})
			}
		}
	}

	return cells
}

// Winner reports the first completed line in the order rows, columns,
// main diagonal, anti diagonal.
func (that *Board) Winner() WinResult {
	for row := 0; row < BoardSize; row++ {
		if m := that[0][row]; m != None && m == that[1][row] && m == that[2][row] {
			return WinResult{Winner: m, Line: LineRow, Center: Coord{Col: 1, Row: row}}
		}
	}

	for col := 0; col < BoardSize; col++ {
		if m := that[col][0]; m != None && m == that[col][1] && m == that[col][2] {
			return WinResult{Winner: m, Line: LineColumn, Center: Coord{Col: col, Row: 1}}
		}
	}

	center := Coord{Col: 1, Row: 1}

	if m := that[0][0]; m != None && m == that[1][1] && m == that[2][2] {
		return WinResult{Winner: m, Line: LineDiagonalMain, Center: center}
	}

	if m := that[2][0]; m != None && m == that[1][1] && m == that[0][2] {
		return WinResult{Winner: m, Line: LineDiagonalAnti, Center: center}
	}

	return WinResult{}
}
