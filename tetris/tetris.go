// Package tetris contains the logic of the game: the field, the pieces and
// the rules that move, lock and clear them.
package tetris

import (
	"fmt"
	"math/rand/v2"
	"time"
)

type State int

const (
	Falling  State = iota // A piece is active and descending.
	GameOver              // A new piece had nowhere to spawn. Terminal.
)

func (s State) String() string {
	switch s {
	case Falling:
		return "falling"
	case GameOver:
		return "gameover"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Tetris is the state of a single game. It is owned by one goroutine at a
// time and is not safe for concurrent use; other goroutines get a Snapshot.
type Tetris struct {
	Field      *Field
	Piece      *Piece
	Next       *Piece
	State      State
	LinesClear int

	history *History
	spawner *Spawner
	gravity time.Duration
	elapsed time.Duration
}

func newTetris(cfg Config) (*Tetris, error) {
	cat, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	t := &Tetris{
		Field:   NewField(cfg.Width, cfg.Height),
		history: NewHistory(cfg.RepetitionWindow),
		spawner: NewSpawner(cat, cfg.Width, seed),
		gravity: cfg.Gravity,
	}
	if t.Piece, err = t.spawner.Next(t.history); err != nil {
		return nil, fmt.Errorf("failed to spawn first piece: %w", err)
	}
	t.history.Push(t.Piece.Canonical)
	if t.Next, err = t.spawner.Next(t.history); err != nil {
		return nil, fmt.Errorf("failed to spawn next piece: %w", err)
	}
	return t, nil
}

// action applies a player command. It reports whether the piece changed.
func (t *Tetris) action(a Action) bool {
	if t.State == GameOver {
		return false
	}
	switch a {
	case MoveLeft:
		return t.Piece.Move(t.Field, -1, 0)
	case MoveRight:
		return t.Piece.Move(t.Field, 1, 0)
	case SoftDrop:
		return t.Piece.Move(t.Field, 0, 1)
	case Rotate:
		return t.Piece.Rotate(t.Field)
	}
	return false
}

// advance adds elapsed to the gravity clock and runs a gravity step once the
// clock passes the interval. The clock goes back to zero after every step.
func (t *Tetris) advance(elapsed time.Duration) (bool, error) {
	if t.State == GameOver {
		return false, nil
	}
	t.elapsed += elapsed
	if t.elapsed <= t.gravity {
		return false, nil
	}
	t.elapsed = 0
	if err := t.fall(); err != nil {
		return false, err
	}
	return true, nil
}

// fall moves the piece one row down, or locks it and brings in the next one.
func (t *Tetris) fall() error {
	if t.Piece.Move(t.Field, 0, 1) {
		return nil
	}
	t.toStack()
	t.LinesClear += t.Field.ClearLines()
	return t.setTetromino()
}

func (t *Tetris) toStack() {
	t.Piece.Lock(t.Field)
}

// setTetromino promotes the pre-drawn piece and draws a new one behind it.
func (t *Tetris) setTetromino() error {
	t.Piece = t.Next
	t.history.Push(t.Piece.Canonical)
	next, err := t.spawner.Next(t.history)
	if err != nil {
		return fmt.Errorf("failed to spawn piece: %w", err)
	}
	t.Next = next
	if t.isGameOver() {
		t.State = GameOver
	}
	return nil
}

func (t *Tetris) isGameOver() bool {
	return !t.Piece.ValidMove(t.Field, 0, 0, t.Piece.Shape)
}

// Snapshot is a copy of a game for renderers. Nothing in it is shared with
// the running game.
type Snapshot struct {
	Width, Height int
	// Stack is the locked cells, row 0 at the top.
	Stack      [][]Color
	Piece      *Piece
	Next       *Piece
	LinesClear int
	GameOver   bool
}

// Read returns a copy of the current status.
func (t *Tetris) Read() *Snapshot {
	return &Snapshot{
		Width:      t.Field.Width,
		Height:     t.Field.Height,
		Stack:      t.Field.Cells(),
		Piece:      t.Piece.copy(),
		Next:       t.Next.copy(),
		LinesClear: t.LinesClear,
		GameOver:   t.State == GameOver,
	}
}
