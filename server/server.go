package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"blockfall/pb"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// watcherBuffer is how many snapshots a slow watcher can fall behind before
// frames are dropped for it.
const watcherBuffer = 10

type session struct {
	last     *structpb.Struct
	watchers map[chan *structpb.Struct]struct{}
	done     chan struct{}
	mu       sync.Mutex
}

func newSession() *session {
	return &session{
		watchers: make(map[chan *structpb.Struct]struct{}),
		done:     make(chan struct{}),
	}
}

func (s *session) publish(msg *structpb.Struct) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = msg
	for ch := range s.watchers {
		select {
		case ch <- msg:
		default:
		}
	}
}

// subscribe registers a watcher and returns the latest snapshot along with it,
// so nothing published in between is missed.
func (s *session) subscribe() (chan *structpb.Struct, *structpb.Struct) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan *structpb.Struct, watcherBuffer)
	s.watchers[ch] = struct{}{}
	return ch, s.last
}

func (s *session) unsubscribe(ch chan *structpb.Struct) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.watchers, ch)
}

type spectatorServer struct {
	pb.UnimplementedSpectatorServer
	logger   *slog.Logger
	sessions map[string]*session
	mu       sync.Mutex
}

func New(l *slog.Logger) pb.SpectatorServer {
	return &spectatorServer{
		logger:   l,
		sessions: make(map[string]*session),
	}
}

func (t *spectatorServer) Publish(stream pb.PublishServer) error {
	first, err := stream.Recv()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to receive Publish message: %w", err)
	}

	id := uuid.New().String()
	s := newSession()
	t.mu.Lock()
	t.sessions[id] = s
	t.mu.Unlock()
	t.logger.Info("session started", slog.String("session", id))
	defer func() {
		t.mu.Lock()
		delete(t.sessions, id)
		t.mu.Unlock()
		close(s.done)
		t.logger.Info("session ended", slog.String("session", id))
	}()

	if err := stream.Send(wrapperspb.String(id)); err != nil {
		return fmt.Errorf("failed to send session ID: %w", err)
	}
	s.publish(first)

	for {
		rcv, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to receive Publish message: %w", err)
		}
		s.publish(rcv)
	}
}

func (t *spectatorServer) Watch(req *wrapperspb.StringValue, stream pb.WatchServer) error {
	id := req.GetValue()
	if id == "" {
		return status.Error(codes.InvalidArgument, "session ID is required")
	}
	t.mu.Lock()
	s, ok := t.sessions[id]
	t.mu.Unlock()
	if !ok {
		return status.Errorf(codes.NotFound, "session %q not found", id)
	}

	ch, last := s.subscribe()
	defer s.unsubscribe(ch)
	if last != nil {
		if err := stream.Send(last); err != nil {
			return fmt.Errorf("failed to send snapshot: %w", err)
		}
	}

	for {
		select {
		case msg := <-ch:
			if err := stream.Send(msg); err != nil {
				return fmt.Errorf("failed to send snapshot: %w", err)
			}
		case <-s.done:
			// flush what the publisher sent before leaving.
			for {
				select {
				case msg := <-ch:
					if err := stream.Send(msg); err != nil {
						return fmt.Errorf("failed to send snapshot: %w", err)
					}
				default:
					return nil
				}
			}
		case <-stream.Context().Done():
			return stream.Context().Err()
		}
	}
}

func (t *spectatorServer) List(context.Context, *emptypb.Empty) (*structpb.ListValue, error) {
	t.mu.Lock()
	ids := make([]string, 0, len(t.sessions))
	for id := range t.sessions {
		ids = append(ids, id)
	}
	t.mu.Unlock()
	slices.Sort(ids)

	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	return structpb.NewList(values)
}
