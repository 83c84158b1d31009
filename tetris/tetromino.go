package tetris

// RGB is a palette entry.
type RGB struct {
	R, G, B uint8
}

// Catalog holds the playable shapes in their spawn orientation and the
// palette pieces are coloured from. A piece's colour does not depend on its shape.
type Catalog struct {
	Shapes  []Matrix
	Palette []RGB
}

/*
.	T		I		O		S		Z		J		L

.	# # #	# # # #	# #		. # #	# # .	# # #	# # #
.	. # .			# #		# # .	. # #	# . .	. . #
*/
var (
	T = MustMatrix("###", ".#.")
	I = MustMatrix("####")
	O = MustMatrix("##", "##")
	S = MustMatrix(".##", "##.")
	Z = MustMatrix("##.", ".##")
	J = MustMatrix("###", "#..")
	L = MustMatrix("###", "..#")
)

func DefaultCatalog() Catalog {
	return Catalog{
		Shapes: []Matrix{T, I, O, S, Z, J, L},
		Palette: []RGB{
			{255, 0, 0},
			{0, 255, 0},
			{0, 0, 255},
			{255, 255, 0},
			{0, 255, 255},
			{255, 0, 255},
			{128, 128, 128},
		},
	}
}

// Piece is the falling tetromino.
type Piece struct {
	// Shape is the current orientation. Rotations replace it, there is no
	// separate orientation state.
	Shape Matrix
	// Canonical is the shape the piece spawned with.
	Canonical Matrix
	Color     Color
	// X and Y are the field coordinates of the shape's top-left corner.
	X, Y int
}

// ValidMove reports whether candidate, shifted by dx and dy from the piece's
// position, fits in the field.
//
// Only the sides, the floor and locked cells block a piece. Cells above row 0
// are allowed, which lets a piece spawn or rotate partially off the top.
func (p *Piece) ValidMove(f *Field, dx, dy int, candidate Matrix) bool {
	for r, c := range candidate.Cells() {
		x := p.X + c + dx
		y := p.Y + r + dy
		if x < 0 || x >= f.Width || y >= f.Height {
			return false
		}
		if y >= 0 && !f.IsEmpty(x, y) {
			return false
		}
	}
	return true
}

// Move translates the piece when the destination is valid. It reports whether the piece moved.
func (p *Piece) Move(f *Field, dx, dy int) bool {
	if !p.ValidMove(f, dx, dy, p.Shape) {
		return false
	}
	p.X += dx
	p.Y += dy
	return true
}

// Rotate turns the piece clockwise in place. A rotation that doesn't fit is
// dropped, there are no wall kicks.
func (p *Piece) Rotate(f *Field) bool {
	candidate := p.Shape.Rotate()
	if !p.ValidMove(f, 0, 0, candidate) {
		return false
	}
	p.Shape = candidate
	return true
}

// Lock writes the piece into the field.
func (p *Piece) Lock(f *Field) {
	f.Place(p)
}

func (p *Piece) copy() *Piece {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
