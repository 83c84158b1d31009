// Package pb describes the spectator relay service. The messages are protobuf
// well-known types, so the service needs no generated code: snapshots travel
// as structpb.Struct and session IDs as wrapperspb.StringValue.
package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "blockfall.Spectator"

	publishMethod = "/" + ServiceName + "/Publish"
	watchMethod   = "/" + ServiceName + "/Watch"
	listMethod    = "/" + ServiceName + "/List"
)

type (
	PublishServer = grpc.BidiStreamingServer[structpb.Struct, wrapperspb.StringValue]
	PublishClient = grpc.BidiStreamingClient[structpb.Struct, wrapperspb.StringValue]
	WatchServer   = grpc.ServerStreamingServer[structpb.Struct]
	WatchClient   = grpc.ServerStreamingClient[structpb.Struct]
)

// SpectatorServer is implemented by the relay.
type SpectatorServer interface {
	// Publish answers the first snapshot with the session ID and relays
	// every snapshot it receives afterwards.
	Publish(PublishServer) error
	// Watch streams the snapshots of a session, starting with the latest one.
	Watch(*wrapperspb.StringValue, WatchServer) error
	// List returns the IDs of the live sessions.
	List(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
}

// UnimplementedSpectatorServer can be embedded to have forward compatible implementations.
type UnimplementedSpectatorServer struct{}

func (UnimplementedSpectatorServer) Publish(PublishServer) error {
	return status.Error(codes.Unimplemented, "method Publish not implemented")
}

func (UnimplementedSpectatorServer) Watch(*wrapperspb.StringValue, WatchServer) error {
	return status.Error(codes.Unimplemented, "method Watch not implemented")
}

func (UnimplementedSpectatorServer) List(context.Context, *emptypb.Empty) (*structpb.ListValue, error) {
	return nil, status.Error(codes.Unimplemented, "method List not implemented")
}

func RegisterSpectatorServer(s grpc.ServiceRegistrar, srv SpectatorServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SpectatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "List", Handler: listHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Publish", Handler: publishHandler, ServerStreams: true, ClientStreams: true},
		{StreamName: "Watch", Handler: watchHandler, ServerStreams: true},
	},
}

func publishHandler(srv any, stream grpc.ServerStream) error {
	return srv.(SpectatorServer).Publish(&grpc.GenericServerStream[structpb.Struct, wrapperspb.StringValue]{ServerStream: stream})
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(wrapperspb.StringValue)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(SpectatorServer).Watch(in, &grpc.GenericServerStream[wrapperspb.StringValue, structpb.Struct]{ServerStream: stream})
}

func listHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SpectatorServer).List(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SpectatorServer).List(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// SpectatorClient calls the relay.
type SpectatorClient struct {
	cc grpc.ClientConnInterface
}

func NewSpectatorClient(cc grpc.ClientConnInterface) *SpectatorClient {
	return &SpectatorClient{cc: cc}
}

func (c *SpectatorClient) Publish(ctx context.Context, opts ...grpc.CallOption) (PublishClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], publishMethod, opts...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[structpb.Struct, wrapperspb.StringValue]{ClientStream: stream}, nil
}

func (c *SpectatorClient) Watch(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (WatchClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[1], watchMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[wrapperspb.StringValue, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *SpectatorClient) List(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, listMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
