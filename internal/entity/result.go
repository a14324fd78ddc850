package entity

import "fmt"

// LineKind names the shape of a completed line.
type LineKind uint8

const (
	LineNone LineKind = iota
	LineRow
	LineColumn
	LineDiagonalMain
	LineDiagonalAnti
)

var lineNames = map[LineKind]string{
	LineNone:         "none",
	LineRow:          "row",
	LineColumn:       "column",
	LineDiagonalMain: "diagonal_main",
	LineDiagonalAnti: "diagonal_anti",
}

func (that LineKind) String() string {
	if name, ok := lineNames[that]; ok {
		return name
	}

	return fmt.Sprintf("line(%d)", uint8(that))
}

func (that LineKind) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *LineKind) UnmarshalText(text []byte) error {
	for kind, name := range lineNames {
		if name == string(text) {
			*that = kind
			return nil
		}
	}

	return fmt.Errorf("unknown line kind %q", text)
}

// WinResult is produced by Board.Winner. The zero value means no completed line,
// which is also what a draw reports.
type WinResult struct {
	Winner Mark     `json:"winner"`
	Line   LineKind `json:"line"`
	Center Coord    `json:"center"`
}

func (that WinResult) IsDecisive() bool {
	return that.Winner != None
}
