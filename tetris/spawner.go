package tetris

import (
	"errors"
	"math/rand/v2"
	"slices"
)

// ErrSpawnPoolExhausted means every shape of the catalog is in the history,
// which can only happen when the repetition window is as large as the catalog.
var ErrSpawnPoolExhausted = errors.New("spawn pool exhausted")

// History keeps the canonical shapes of the most recent spawns.
type History struct {
	window int
	shapes []Matrix
}

func NewHistory(window int) *History {
	return &History{window: window}
}

// Push records a spawned shape and evicts the oldest ones beyond the window.
func (h *History) Push(m Matrix) {
	h.shapes = append(h.shapes, m)
	if over := len(h.shapes) - h.window; over > 0 {
		h.shapes = slices.Delete(h.shapes, 0, over)
	}
}

// Contains compares m with every remembered shape cell by cell.
func (h *History) Contains(m Matrix) bool {
	return slices.ContainsFunc(h.shapes, m.Equal)
}

func (h *History) Len() int { return len(h.shapes) }

// Shapes returns the remembered shapes, oldest first.
func (h *History) Shapes() []Matrix { return slices.Clone(h.shapes) }

// Spawner draws new pieces. It avoids the shapes in the history it's given but
// otherwise picks uniformly, so it is not a 7-bag: a shape comes back as soon
// as it leaves the window.
type Spawner struct {
	catalog    Catalog
	fieldWidth int
	rand       *rand.Rand
}

// NewSpawner returns a spawner whose draws are fully determined by seed.
func NewSpawner(c Catalog, fieldWidth int, seed uint64) *Spawner {
	return &Spawner{
		catalog:    c,
		fieldWidth: fieldWidth,
		rand:       rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
}

// Next builds the next piece, centred on row 0.
func (s *Spawner) Next(h *History) (*Piece, error) {
	var pool []Matrix
	for _, m := range s.catalog.Shapes {
		if h == nil || !h.Contains(m) {
			pool = append(pool, m)
		}
	}
	if len(pool) == 0 {
		return nil, ErrSpawnPoolExhausted
	}
	shape := pool[s.rand.IntN(len(pool))]
	return &Piece{
		Shape:     shape,
		Canonical: shape,
		Color:     Color(s.rand.IntN(len(s.catalog.Palette)) + 1),
		X:         s.fieldWidth/2 - shape.Cols()/2,
		Y:         0,
	}, nil
}
