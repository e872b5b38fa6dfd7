package grpc_control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Service and method names of the marketloader.Control gRPC service. Messages are the
// well-known Empty and Struct types, so no generated code is needed.
const (
	ServiceName             = "marketloader.Control"
	ListPipelinesFullMethod = "/marketloader.Control/ListPipelines"
	RunPipelineFullMethod   = "/marketloader.Control/RunPipeline"
	ListRunsFullMethod      = "/marketloader.Control/ListRuns"
)

// ControlServer is the server API for marketloader.Control.
type ControlServer interface {
	ListPipelines(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	RunPipeline(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRuns(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func RegisterControlServer(s grpc.ServiceRegistrar, srv ControlServer) {
	s.RegisterService(&Control_ServiceDesc, srv)
}

// -----------------------------------------------------------------------------

func _Control_ListPipelines_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).ListPipelines(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListPipelinesFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).ListPipelines(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _Control_RunPipeline_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).RunPipeline(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RunPipelineFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).RunPipeline(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _Control_ListRuns_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).ListRuns(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListRunsFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).ListRuns(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// Control_ServiceDesc is the grpc.ServiceDesc for marketloader.Control.
var Control_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListPipelines", Handler: _Control_ListPipelines_Handler},
		{MethodName: "RunPipeline", Handler: _Control_RunPipeline_Handler},
		{MethodName: "ListRuns", Handler: _Control_ListRuns_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "marketloader/control.proto",
}

// -----------------------------------------------------------------------------

// ControlClient is the client API for marketloader.Control.
type ControlClient struct {
	cc grpc.ClientConnInterface
}

func NewControlClient(cc grpc.ClientConnInterface) *ControlClient {
	return &ControlClient{cc: cc}
}

func (c *ControlClient) ListPipelines(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListPipelinesFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ControlClient) RunPipeline(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, RunPipelineFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ControlClient) ListRuns(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListRunsFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
