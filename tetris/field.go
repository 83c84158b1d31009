package tetris

import "slices"

// Color is an index into the palette, 1-based. Empty marks a free cell.
type Color int

const Empty Color = 0

// Field is the grid of locked cells.
// Columns are 0 > Width-1 left to right and represent the X axis.
// Rows are 0 > Height-1 top to bottom and represent the Y axis.
type Field struct {
	Width, Height int

	cells [][]Color
}

func NewField(width, height int) *Field {
	f := &Field{Width: width, Height: height}
	f.Reset()
	return f
}

// Reset empties every cell.
func (f *Field) Reset() {
	f.cells = make([][]Color, f.Height)
	for y := range f.cells {
		f.cells[y] = make([]Color, f.Width)
	}
}

func (f *Field) inBounds(x, y int) bool {
	return x >= 0 && x < f.Width && y >= 0 && y < f.Height
}

// IsEmpty is true when (x, y) is inside the field and nothing is locked there.
func (f *Field) IsEmpty(x, y int) bool {
	return f.inBounds(x, y) && f.cells[y][x] == Empty
}

// At returns the colour locked at (x, y), Empty when out of bounds.
func (f *Field) At(x, y int) Color {
	if !f.inBounds(x, y) {
		return Empty
	}
	return f.cells[y][x]
}

// Set locks a single cell. Out of bounds coordinates are ignored.
func (f *Field) Set(x, y int, c Color) {
	if f.inBounds(x, y) {
		f.cells[y][x] = c
	}
}

// Place writes the piece into the field with its colour. The caller must have
// validated the position first; cells above row 0 are dropped since the field
// has no row for them.
func (f *Field) Place(p *Piece) {
	for r, c := range p.Shape.Cells() {
		y := p.Y + r
		if y < 0 {
			continue
		}
		f.cells[y][p.X+c] = p.Color
	}
}

// ClearLines removes every complete row, shifts what's left down and fills
// the top with empty rows. It returns the number of rows removed.
func (f *Field) ClearLines() int {
	kept := make([][]Color, 0, f.Height)
	for _, row := range f.cells {
		if slices.Contains(row, Empty) {
			kept = append(kept, row)
		}
	}
	cleared := f.Height - len(kept)
	if cleared == 0 {
		return 0
	}
	rows := make([][]Color, 0, f.Height)
	for range cleared {
		rows = append(rows, make([]Color, f.Width))
	}
	f.cells = append(rows, kept...)
	return cleared
}

// Cells returns a copy of the grid, row 0 first.
func (f *Field) Cells() [][]Color {
	out := make([][]Color, len(f.cells))
	for y := range f.cells {
		out[y] = slices.Clone(f.cells[y])
	}
	return out
}
