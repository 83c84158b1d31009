package server

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net"
	"testing"

	"blockfall/pb"
	"blockfall/tetris"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func snapshot(t *testing.T, lines int) *structpb.Struct {
	t.Helper()
	game := tetris.NewTestTetris(tetris.T)
	game.LinesClear = lines
	st, err := pb.EncodeSnapshot(game.Read())
	require.NoError(t, err)
	return st
}

func TestPublishWatch(t *testing.T) {
	ctx := context.Background()
	client, closer := testServer(ctx)
	defer closer()

	pub, err := client.Publish(ctx)
	require.NoError(t, err)
	first := snapshot(t, 0)
	require.NoError(t, pub.Send(first))
	id, err := pub.Recv()
	require.NoError(t, err)
	_, err = uuid.Parse(id.GetValue())
	require.NoError(t, err, "session ID should be a UUID")

	list, err := client.List(ctx, &emptypb.Empty{})
	require.NoError(t, err)
	require.Len(t, list.GetValues(), 1)
	assert.Equal(t, id.GetValue(), list.GetValues()[0].GetStringValue())

	watch, err := client.Watch(ctx, id)
	require.NoError(t, err)
	got, err := watch.Recv()
	require.NoError(t, err)
	assert.True(t, proto.Equal(first, got), "watcher should start with the latest snapshot")

	second := snapshot(t, 4)
	require.NoError(t, pub.Send(second))
	got, err = watch.Recv()
	require.NoError(t, err)
	assert.True(t, proto.Equal(second, got))
	decoded, err := pb.DecodeSnapshot(got)
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.LinesClear)

	require.NoError(t, pub.CloseSend())
	_, err = watch.Recv()
	assert.ErrorIs(t, err, io.EOF, "watch should end with the session")
}

func TestWatchErrors(t *testing.T) {
	ctx := context.Background()
	client, closer := testServer(ctx)
	defer closer()

	tests := []struct {
		name string
		id   string
		code codes.Code
	}{
		{"unknown session", uuid.New().String(), codes.NotFound},
		{"missing session", "", codes.InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			watch, err := client.Watch(ctx, wrapperspb.String(tt.id))
			require.NoError(t, err)
			_, err = watch.Recv()
			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}

func TestListEmpty(t *testing.T) {
	ctx := context.Background()
	client, closer := testServer(ctx)
	defer closer()

	list, err := client.List(ctx, &emptypb.Empty{})
	require.NoError(t, err)
	assert.Empty(t, list.GetValues())
}

func testServer(ctx context.Context) (*pb.SpectatorClient, func()) {
	buffer := 101024 * 1024
	lis := bufconn.Listen(buffer)

	s := grpc.NewServer()
	pb.RegisterSpectatorServer(s, New(slog.Default()))
	go func() {
		if err := s.Serve(lis); err != nil {
			log.Printf("unable to serve: %v", err)
		}
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet", grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Printf("error connecting to server: %v", err)
	}

	closer := func() {
		if err := conn.Close(); err != nil {
			log.Printf("error closing connection: %v", err)
		}
		if err := lis.Close(); err != nil {
			log.Printf("error closing listener: %v", err)
		}
		s.Stop()
	}

	return pb.NewSpectatorClient(conn), closer
}
