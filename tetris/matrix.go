package tetris

import (
	"errors"
	"iter"
	"strings"
)

var ErrInvalidMatrix = errors.New("invalid shape matrix")

// Matrix is the occupancy grid of a piece in one orientation.
// It is a value type: Rotate and the constructors always build a new grid,
// so two pieces never share the rows they read from.
type Matrix struct {
	rows [][]bool
}

// NewMatrix copies grid into a Matrix. The grid must be rectangular and
// have at least one occupied cell.
func NewMatrix(grid [][]bool) (Matrix, error) {
	if len(grid) == 0 || len(grid[0]) == 0 {
		return Matrix{}, ErrInvalidMatrix
	}
	rows := make([][]bool, len(grid))
	occupied := false
	for i := range grid {
		if len(grid[i]) != len(grid[0]) {
			return Matrix{}, ErrInvalidMatrix
		}
		rows[i] = make([]bool, len(grid[i]))
		copy(rows[i], grid[i])
		for _, c := range grid[i] {
			occupied = occupied || c
		}
	}
	if !occupied {
		return Matrix{}, ErrInvalidMatrix
	}
	return Matrix{rows: rows}, nil
}

// ParseMatrix reads one string per row, '#' is an occupied cell and '.' an empty one.
func ParseMatrix(rows ...string) (Matrix, error) {
	grid := make([][]bool, len(rows))
	for i, r := range rows {
		grid[i] = make([]bool, len(r))
		for j, c := range r {
			switch c {
			case '#':
				grid[i][j] = true
			case '.':
			default:
				return Matrix{}, ErrInvalidMatrix
			}
		}
	}
	return NewMatrix(grid)
}

// MustMatrix is ParseMatrix for literals known to be valid.
func MustMatrix(rows ...string) Matrix {
	m, err := ParseMatrix(rows...)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Matrix) Rows() int { return len(m.rows) }

func (m Matrix) Cols() int {
	if len(m.rows) == 0 {
		return 0
	}
	return len(m.rows[0])
}

// At reports whether the cell at row r, column c is occupied.
func (m Matrix) At(r, c int) bool { return m.rows[r][c] }

// Area is the number of occupied cells.
func (m Matrix) Area() int {
	n := 0
	for range m.Cells() {
		n++
	}
	return n
}

// Cells yields the row and column of every occupied cell.
func (m Matrix) Cells() iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		for r, row := range m.rows {
			for c, v := range row {
				if v && !yield(r, c) {
					return
				}
			}
		}
	}
}

// Rotate returns the matrix turned 90 degrees clockwise: the row order is
// reversed and the result transposed, so output (r, c) is input (rows-1-c, r).
//
//	###      ##
//	#..  ->  .#
//	         .#
func (m Matrix) Rotate() Matrix {
	rows, cols := m.Rows(), m.Cols()
	out := make([][]bool, cols)
	for r := range cols {
		out[r] = make([]bool, rows)
		for c := range rows {
			out[r][c] = m.rows[rows-1-c][r]
		}
	}
	return Matrix{rows: out}
}

// Equal compares two matrices cell by cell.
func (m Matrix) Equal(o Matrix) bool {
	if m.Rows() != o.Rows() || m.Cols() != o.Cols() {
		return false
	}
	for r := range m.rows {
		for c := range m.rows[r] {
			if m.rows[r][c] != o.rows[r][c] {
				return false
			}
		}
	}
	return true
}

// Grid returns a copy of the underlying rows.
func (m Matrix) Grid() [][]bool {
	out := make([][]bool, len(m.rows))
	for i := range m.rows {
		out[i] = make([]bool, len(m.rows[i]))
		copy(out[i], m.rows[i])
	}
	return out
}

// Strings is the inverse of ParseMatrix.
func (m Matrix) Strings() []string {
	out := make([]string, len(m.rows))
	for i, row := range m.rows {
		var b strings.Builder
		for _, v := range row {
			if v {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		out[i] = b.String()
	}
	return out
}

func (m Matrix) String() string { return strings.Join(m.Strings(), "/") }
