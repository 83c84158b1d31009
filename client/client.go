package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"blockfall/tetris"

	"github.com/eiannone/keyboard"
)

type clientState int

const (
	lobby clientState = iota
	playing
)

type state struct {
	current clientState
	mu      sync.Mutex
}

func (s *state) get() clientState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *state) set(c clientState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = c
}

type tetrisGame interface {
	Start(context.Context) error
	GetUpdate() <-chan *tetris.Snapshot
	Action(tetris.Action)
	Stop()
	Err() error
}

type renderer interface {
	local(*tetris.Snapshot)
	lobby(message)
	session(string)
	reset()
}

type publisher interface {
	Publish(*tetris.Snapshot) error
	Session() string
	EndSession()
}

type Client struct {
	tetris  tetrisGame
	render  renderer
	remote  publisher
	options *Options
	logger  *slog.Logger
	kbCh    <-chan keyboard.KeyEvent
	state   *state
	wg      sync.WaitGroup
}

type Options struct {
	Config tetris.Config
	// Remote publishes every game to a spectator relay when set.
	Remote *RemoteClient
}

func New(l *slog.Logger, o *Options) (*Client, error) {
	r, err := newRender(l, o.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load renderer: %w", err)
	}
	kb, err := keyboard.GetKeys(20)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyboard: %w", err)
	}
	c := &Client{
		tetris:  tetris.NewGame(o.Config, l),
		render:  r,
		options: o,
		logger:  l,
		kbCh:    kb,
		state:   &state{current: lobby},
	}
	if o.Remote != nil {
		c.remote = o.Remote
	}
	return c, nil
}

// Start shows the lobby and blocks until the player quits.
func (c *Client) Start() {
	c.render.reset()
	c.render.local(nil)
	c.render.lobby(defaultLobby())
	c.listenKB()
	c.wg.Wait()
}

func (c *Client) listenKB() {
	for {
		event, ok := <-c.kbCh
		if !ok {
			c.logger.Error("Keyboard events channel closed unexpectedly")
			return
		}
		if event.Err != nil {
			c.logger.Error("keysEvents error", slog.String("error", event.Err.Error()))
			return
		}
		if event.Key == keyboard.KeyCtrlC {
			c.tetris.Stop()
			return
		}
		switch c.state.get() {
		case lobby:
			switch event.Rune {
			case 'p':
				c.state.set(playing)
				c.wg.Add(1)
				go c.listenTetris()
			case 'q':
				return
			}
		case playing:
			if a, ok := keyToAction(event); ok {
				c.tetris.Action(a)
			}
		}
	}
}

// keyToAction maps a key press to a game command.
func keyToAction(event keyboard.KeyEvent) (tetris.Action, bool) {
	switch {
	case event.Key == keyboard.KeyArrowDown || event.Rune == 's':
		return tetris.SoftDrop, true
	case event.Key == keyboard.KeyArrowLeft || event.Rune == 'a':
		return tetris.MoveLeft, true
	case event.Key == keyboard.KeyArrowRight || event.Rune == 'd':
		return tetris.MoveRight, true
	case event.Key == keyboard.KeyArrowUp || event.Rune == 'w':
		return tetris.Rotate, true
	case event.Key == keyboard.KeyEsc || event.Rune == 'q':
		return tetris.Quit, true
	}
	return "", false
}

func (c *Client) listenTetris() {
	defer c.wg.Done()
	if err := c.tetris.Start(context.Background()); err != nil {
		c.logger.Error("unable to start game", slog.String("error", err.Error()))
		c.state.set(lobby)
		c.render.lobby(errorMessage())
		return
	}
	c.render.reset()

	var queue *publishQueue
	if c.remote != nil {
		queue = newPublishQueue(c.remote, c.logger)
	}
	var last *tetris.Snapshot
	for u := range c.tetris.GetUpdate() {
		last = u
		if queue != nil {
			queue.push(u)
			c.render.session(queue.Session())
		}
		c.render.local(u)
	}
	if queue != nil {
		queue.close()
		c.render.session("")
		// a failing relay is dropped for the rest of the process.
		if queue.hasFailed() {
			c.remote = nil
		}
	}

	c.state.set(lobby)
	switch {
	case c.tetris.Err() != nil:
		c.render.lobby(errorMessage())
	case last != nil && last.GameOver:
		c.render.lobby(gameOver(last.LinesClear))
	default:
		c.render.lobby(defaultLobby())
	}
}

// Spectate renders a game published on the relay until it ends or ctx is done.
func Spectate(ctx context.Context, l *slog.Logger, cfg tetris.Config, remote *RemoteClient, id string) error {
	r, err := newRender(l, cfg)
	if err != nil {
		return fmt.Errorf("failed to load renderer: %w", err)
	}
	return spectate(ctx, r, remote, id)
}

func spectate(ctx context.Context, r *render, remote *RemoteClient, id string) error {
	r.reset()
	r.session(id)
	var last *tetris.Snapshot
	err := remote.Watch(ctx, id, func(s *tetris.Snapshot) {
		// the field size comes from the player's configuration.
		r.Width, r.Height = s.Width, s.Height
		last = s
		r.local(s)
	})
	if err != nil {
		return err
	}
	if last != nil && last.GameOver {
		r.lobby(message{"Game Over :)", fmt.Sprintf("%d lines", last.LinesClear)})
	}
	return nil
}
