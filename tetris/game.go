package tetris

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

type Action string

const (
	MoveLeft  Action = "left"   // Moves the piece one step to the left.
	MoveRight Action = "right"  // Moves the piece one step to the right.
	SoftDrop  Action = "down"   // Moves the piece one step down.
	Rotate    Action = "rotate" // Rotates the piece clockwise.
	Quit      Action = "quit"   // Ends the game.
)

type Ticker interface {
	C() <-chan time.Time
	Reset(time.Duration)
	Stop()
}

type wrappedTicker struct {
	ticker *time.Ticker
}

func newWrappedTicker(d time.Duration) *wrappedTicker {
	return &wrappedTicker{ticker: time.NewTicker(d)}
}

func (t *wrappedTicker) C() <-chan time.Time   { return t.ticker.C }
func (t *wrappedTicker) Stop()                 { t.ticker.Stop() }
func (t *wrappedTicker) Reset(d time.Duration) { t.ticker.Reset(d) }

// Game runs a Tetris on its own goroutine. Every tick of the frame ticker it
// applies the actions received since the previous tick, in order, then lets
// gravity act with the time elapsed between the two ticks.
type Game struct {
	config Config
	ticker Ticker
	logger *slog.Logger

	mu       sync.Mutex
	actionCh chan Action
	updateCh chan *Snapshot
	cancel   context.CancelFunc
	done     chan struct{}
	err      error
}

// NewGame returns a game driven by a real ticker firing every cfg.Frame.
func NewGame(cfg Config, l *slog.Logger) *Game {
	return NewConfigurableGame(cfg, newWrappedTicker(time.Hour), l)
}

func NewConfigurableGame(cfg Config, ticker Ticker, l *slog.Logger) *Game {
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ticker.Stop()
	return &Game{
		config:   cfg,
		ticker:   ticker,
		logger:   l,
		actionCh: make(chan Action),
		updateCh: make(chan *Snapshot),
	}
}

// Start begins a new game. The first value on GetUpdate() is the game as it
// spawned. Starting a game that is still running is an error.
func (g *Game) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done != nil {
		select {
		case <-g.done:
		default:
			return errors.New("game already running")
		}
	}
	t, err := newTetris(g.config)
	if err != nil {
		return fmt.Errorf("failed to start game: %w", err)
	}
	ctx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.done = make(chan struct{})
	g.updateCh = make(chan *Snapshot)
	g.err = nil
	g.ticker.Reset(g.config.Frame)

	go g.listen(ctx, t, g.updateCh, g.done)
	return nil
}

// Stop ends the running game. The update channel is closed once the game
// goroutine has returned.
func (g *Game) Stop() {
	g.mu.Lock()
	cancel, done := g.cancel, g.done
	g.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Action queues a command for the next frame. Commands sent to a game that
// isn't running are dropped.
func (g *Game) Action(a Action) {
	g.mu.Lock()
	done := g.done
	g.mu.Unlock()
	if done == nil {
		return
	}
	select {
	case g.actionCh <- a:
	case <-done:
	}
}

// GetUpdate returns the channel of the current game. It is closed when the game ends.
func (g *Game) GetUpdate() <-chan *Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.updateCh
}

// Err returns the error that stopped the last game, if any.
func (g *Game) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

func (g *Game) listen(ctx context.Context, t *Tetris, updateCh chan<- *Snapshot, done chan<- struct{}) {
	// done is closed first so a receiver that sees updateCh closed can start again.
	defer func() {
		g.ticker.Stop()
		close(done)
		close(updateCh)
	}()

	send := func(s *Snapshot) bool {
		select {
		case updateCh <- s:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if !send(t.Read()) {
		return
	}

	var (
		pending []Action
		last    time.Time
	)
	for {
		select {
		case a := <-g.actionCh:
			if a == Quit {
				g.logger.Debug("game quit", slog.Int("lines", t.LinesClear))
				return
			}
			pending = append(pending, a)
		case now := <-g.ticker.C():
			var elapsed time.Duration
			if !last.IsZero() {
				elapsed = now.Sub(last)
			}
			last = now

			changed := false
			for _, a := range pending {
				changed = t.action(a) || changed
			}
			pending = pending[:0]

			fell, err := t.advance(elapsed)
			if err != nil {
				g.logger.Error("game stopped", slog.String("error", err.Error()))
				g.mu.Lock()
				g.err = err
				g.mu.Unlock()
				return
			}
			if !changed && !fell {
				continue
			}
			if !send(t.Read()) {
				return
			}
			if t.State == GameOver {
				g.logger.Debug("game over", slog.Int("lines", t.LinesClear))
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
