package client

import (
	"context"
	"log"
	"log/slog"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"blockfall/pb"
	"blockfall/server"
	"blockfall/tetris"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

func testRelay(t *testing.T) func() *RemoteClient {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	s := grpc.NewServer()
	pb.RegisterSpectatorServer(s, server.New(slog.Default()))
	go func() {
		if err := s.Serve(lis); err != nil {
			log.Printf("unable to serve: %v", err)
		}
	}()
	t.Cleanup(s.Stop)

	return func() *RemoteClient {
		r := NewRemoteClient("passthrough:///bufnet", slog.Default(),
			grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
				return lis.DialContext(ctx)
			}))
		t.Cleanup(r.Close)
		return r
	}
}

func TestRemotePublishWatch(t *testing.T) {
	newClient := testRelay(t)
	player, watcher := newClient(), newClient()

	tts := tetris.NewTestTetris(tetris.T)
	require.NoError(t, player.Publish(tts.Read()))
	id := player.Session()
	require.NotEmpty(t, id)

	got := make(chan *tetris.Snapshot, 10)
	done := make(chan error)
	go func() {
		done <- watcher.Watch(context.Background(), id, func(s *tetris.Snapshot) { got <- s })
	}()

	select {
	case s := <-got:
		assert.Equal(t, tts.Read(), s, "watcher should start with the latest snapshot")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for the first snapshot")
	}

	tts.LinesClear = 2
	tts.State = tetris.GameOver
	require.NoError(t, player.Publish(tts.Read()))
	assert.Equal(t, id, player.Session(), "session should last for the whole game")
	player.EndSession()
	assert.Empty(t, player.Session())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for the watch to end")
	}
	close(got)
	var last *tetris.Snapshot
	for s := range got {
		last = s
	}
	require.NotNil(t, last)
	assert.Equal(t, 2, last.LinesClear)
	assert.True(t, last.GameOver)
}

func TestRemoteWatchUnknownSession(t *testing.T) {
	newClient := testRelay(t)
	err := newClient().Watch(context.Background(), "nope", func(*tetris.Snapshot) {})
	assert.Error(t, err)
}

func TestSpectate(t *testing.T) {
	newClient := testRelay(t)
	player, watcher := newClient(), newClient()

	tts := tetris.NewTestTetris(tetris.O)
	tts.State = tetris.GameOver
	tts.LinesClear = 5
	require.NoError(t, player.Publish(tts.Read()))
	id := player.Session()

	r, _ := testRender(t)
	out := &lockedWriter{}
	r.writer = out
	// a spectator configured with a different field adopts the player's.
	r.Width, r.Height = 4, 4
	done := make(chan error)
	go func() { done <- spectate(context.Background(), r, watcher, id) }()

	// the first frame means the watcher subscribed before the session ends.
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "blockfall")
	}, time.Second, 5*time.Millisecond)
	player.EndSession()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for spectate to end")
	}
	assert.True(t, strings.Contains(out.String(), "Game Over :)"))
	assert.True(t, strings.Contains(out.String(), "5 lines"))
	assert.True(t, strings.Contains(out.String(), id))
	assert.Equal(t, 20, r.Height)
	assert.Equal(t, 10, r.Width)
}

type lockedWriter struct {
	b  strings.Builder
	mu sync.Mutex
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.b.Write(p)
}

func (w *lockedWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.b.String()
}
