package tetris

import (
	"sync"
	"time"
)

// MockTicker is a mock implementation of the ticker interface.
type MockTicker struct {
	ch          chan time.Time
	stop, reset bool
	mu          sync.Mutex
}

func NewMockTicker() *MockTicker          { return &MockTicker{ch: make(chan time.Time)} }
func (m *MockTicker) C() <-chan time.Time { return m.ch }

// Tick delivers a frame at the given time.
func (m *MockTicker) Tick(at time.Time) { m.ch <- at }

func (m *MockTicker) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stop = true
}

func (m *MockTicker) Reset(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset = true
	m.stop = false
}

func (m *MockTicker) IsReset() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reset
}

func (m *MockTicker) IsStop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stop
}

// TestConfig is the default configuration with a fixed seed.
func TestConfig() Config {
	cfg := DefaultConfig()
	cfg.Seed = 42
	return cfg
}

// NewTestTetris creates a game on an empty 10x20 field whose current and next
// pieces both have the given shape, spawned where the spawner would put them.
func NewTestTetris(shape Matrix) *Tetris {
	cfg := TestConfig()
	cat := DefaultCatalog()
	t := &Tetris{
		Field:   NewField(cfg.Width, cfg.Height),
		history: NewHistory(cfg.RepetitionWindow),
		spawner: NewSpawner(cat, cfg.Width, cfg.Seed),
		gravity: cfg.Gravity,
	}
	t.Piece = newTestPiece(shape, cfg.Width)
	t.Next = newTestPiece(shape, cfg.Width)
	t.history.Push(shape)
	return t
}

func newTestPiece(shape Matrix, width int) *Piece {
	return &Piece{
		Shape:     shape,
		Canonical: shape,
		Color:     1,
		X:         width/2 - shape.Cols()/2,
	}
}
