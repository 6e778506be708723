package entity

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/tictactoe-arcade/internal/apperror"
)

// Mark is the content of a single cell and also identifies a side.
type Mark string

const (
	EmptyCell Mark = ""
	PlayerX   Mark = "X"
	PlayerO   Mark = "O"
)

// BoardSize is the number of cells on the board.
const BoardSize = 9

// WinCombos lists the rows, then the columns, then the diagonals.
// The order is the tie-break order of the computer's win and block scans.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Opponent returns the other side. EmptyCell has no opponent.
func (that Mark) Opponent() Mark {
	switch that {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return EmptyCell
	}
}

// IsPlayer reports whether the mark is X or O.
func (that Mark) IsPlayer() bool {
	return that == PlayerX || that == PlayerO
}

// ParseMark - accepts "x", "X", "o" or "O".
func ParseMark(value string) (Mark, error) {
	switch Mark(strings.ToUpper(strings.TrimSpace(value))) {
	case PlayerX:
		return PlayerX, nil
	case PlayerO:
		return PlayerO, nil
	default:
		return EmptyCell, fmt.Errorf("%w: %q", apperror.ErrInvalidMark, value)
	}
}

// Board is stored row-major: 0,1,2 / 3,4,5 / 6,7,8.
type Board [BoardSize]Mark

// IsValidCell reports whether index addresses a cell.
func IsValidCell(index int) bool {
	return index >= 0 && index < BoardSize
}

// EmptyCells returns the indexes of all empty cells in ascending order.
func (that *Board) EmptyCells() []int {
	cells := make([]int, 0, BoardSize)
	for i, cell := range that {
		if cell == EmptyCell {
			cells = append(cells, i)
		}
	}

	return cells
}

// IsFull reports whether no empty cell remains.
func (that *Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

// HasLine reports whether mark occupies a whole winning line.
func (that *Board) HasLine(mark Mark) bool {
	_, ok := that.WinningLine(mark)
	return ok
}

// WinningLine returns the first line fully occupied by mark.
func (that *Board) WinningLine(mark Mark) ([3]int, bool) {
	if !mark.IsPlayer() {
		return [3]int{}, false
	}

	for _, combo := range WinCombos {
		if that[combo[0]] == mark && that[combo[1]] == mark && that[combo[2]] == mark {
			return combo, true
		}
	}

	return [3]int{}, false
}
