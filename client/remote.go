package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"blockfall/pb"
	"blockfall/tetris"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// RemoteClient talks to the spectator relay. One game is one session: the
// first published snapshot opens it and EndSession closes it.
type RemoteClient struct {
	Addr   string
	Logger *slog.Logger

	dialOpts []grpc.DialOption
	conn     *grpc.ClientConn
	sc       *pb.SpectatorClient
	stream   pb.PublishClient
	cancel   context.CancelFunc
	session  string
}

func NewRemoteClient(addr string, l *slog.Logger, opts ...grpc.DialOption) *RemoteClient {
	return &RemoteClient{
		Addr:     addr,
		Logger:   l,
		dialOpts: append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...),
	}
}

func (r *RemoteClient) connect() error {
	if r.sc != nil {
		return nil
	}
	conn, err := grpc.NewClient(r.Addr, r.dialOpts...)
	if err != nil {
		return fmt.Errorf("unable to create gRPC client: %w", err)
	}
	r.conn = conn
	r.sc = pb.NewSpectatorClient(conn)
	return nil
}

// Session is the ID spectators use to watch the current game, empty when
// nothing has been published yet.
func (r *RemoteClient) Session() string { return r.session }

// Publish sends a snapshot to the relay, opening a session on the first call.
func (r *RemoteClient) Publish(s *tetris.Snapshot) error {
	msg, err := pb.EncodeSnapshot(s)
	if err != nil {
		return err
	}
	if r.stream != nil {
		if err := r.stream.Send(msg); err != nil {
			r.EndSession()
			return fmt.Errorf("unable to publish snapshot: %w", err)
		}
		return nil
	}

	if err := r.connect(); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	stream, err := r.sc.Publish(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("unable to create gRPC Publish stream: %w", err)
	}
	if err := stream.Send(msg); err != nil {
		cancel()
		return fmt.Errorf("unable to send initial snapshot: %w", err)
	}
	rcv, err := stream.Recv()
	if err != nil {
		cancel()
		return fmt.Errorf("unable to receive session ID: %w", err)
	}
	r.stream, r.cancel, r.session = stream, cancel, rcv.GetValue()
	r.Logger.Info("publishing session", slog.String("session", r.session))
	return nil
}

// EndSession closes the current session, if any.
func (r *RemoteClient) EndSession() {
	if r.stream == nil {
		return
	}
	if err := r.stream.CloseSend(); err != nil {
		r.Logger.Error("unable to close Publish stream", slog.String("error", err.Error()))
	}
	// wait for the relay to finish the stream before dropping it.
	if _, err := r.stream.Recv(); err != nil && !errors.Is(err, io.EOF) {
		r.Logger.Debug("Publish stream closed", slog.String("msg", err.Error()))
	}
	r.cancel()
	r.stream, r.cancel, r.session = nil, nil, ""
}

// Watch calls fn with every snapshot of the session until it ends or ctx is done.
func (r *RemoteClient) Watch(ctx context.Context, id string, fn func(*tetris.Snapshot)) error {
	if err := r.connect(); err != nil {
		return err
	}
	stream, err := r.sc.Watch(ctx, wrapperspb.String(id))
	if err != nil {
		return fmt.Errorf("unable to create gRPC Watch stream: %w", err)
	}
	for {
		rcv, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.Logger.Debug("stream.Recv() closed with EOF")
				return nil
			}
			if st, ok := status.FromError(err); ok && st.Code() == codes.Canceled {
				r.Logger.Debug("stream.Recv() closed with Cancel", slog.String("msg", st.Message()))
				return nil
			}
			return fmt.Errorf("unable to receive snapshot: %w", err)
		}
		s, err := pb.DecodeSnapshot(rcv)
		if err != nil {
			r.Logger.Error("dropping snapshot", slog.String("error", err.Error()))
			continue
		}
		fn(s)
	}
}

func (r *RemoteClient) Close() {
	r.EndSession()
	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			r.Logger.Error("unable to close gRPC client", slog.String("error", err.Error()))
		}
	}
}
