package client

import (
	"log/slog"
	"sync"

	"blockfall/tetris"
)

// publishBuffer is how many snapshots can wait for a slow relay before the
// oldest ones are dropped.
const publishBuffer = 10

// publishQueue sends snapshots to the relay on its own goroutine, so a stalled
// relay never holds up the game loop.
type publishQueue struct {
	ch     chan *tetris.Snapshot
	remote publisher
	logger *slog.Logger
	done   chan struct{}

	mu      sync.Mutex
	session string
	failed  bool
}

func newPublishQueue(remote publisher, l *slog.Logger) *publishQueue {
	q := &publishQueue{
		ch:     make(chan *tetris.Snapshot, publishBuffer),
		remote: remote,
		logger: l,
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

// push never blocks. When the buffer is full the oldest snapshot gives way.
// It must be called from a single goroutine.
func (q *publishQueue) push(s *tetris.Snapshot) {
	for {
		select {
		case q.ch <- s:
			return
		default:
		}
		select {
		case <-q.ch:
		default:
		}
	}
}

func (q *publishQueue) run() {
	defer close(q.done)
	for s := range q.ch {
		if q.hasFailed() {
			continue
		}
		if err := q.remote.Publish(s); err != nil {
			q.logger.Error("unable to publish snapshot", slog.String("error", err.Error()))
			q.mu.Lock()
			q.failed, q.session = true, ""
			q.mu.Unlock()
			continue
		}
		q.mu.Lock()
		q.session = q.remote.Session()
		q.mu.Unlock()
	}
	q.remote.EndSession()
}

// close flushes the queued snapshots and ends the session.
func (q *publishQueue) close() {
	close(q.ch)
	<-q.done
}

func (q *publishQueue) Session() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.session
}

func (q *publishQueue) hasFailed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.failed
}
