// ============================================================================
// Periodic Engine Control Plane - Service Descriptor
// ============================================================================
//
// Package: internal/rpc
// File: desc.go
// Purpose: a hand-written grpc.ServiceDesc and client stub, filling
//          the role a protoc-gen-go-grpc *_grpc.pb.go file would, for
//          the four control-plane RPCs
//
// ============================================================================

package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const serviceName = "periodicengine.v1.ControlPlane"

func _ControlPlane_AddTask_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AddTaskRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlPlaneServer).AddTask(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/AddTask"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlPlaneServer).AddTask(ctx, req.(*AddTaskRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ControlPlane_Stop_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(StopRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlPlaneServer).Stop(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Stop"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlPlaneServer).Stop(ctx, req.(*StopRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ControlPlane_ListWatchers_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListWatchersRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlPlaneServer).ListWatchers(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ListWatchers"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlPlaneServer).ListWatchers(ctx, req.(*ListWatchersRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ControlPlane_ExecutorStats_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ExecutorStatsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlPlaneServer).ExecutorStats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ExecutorStats"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlPlaneServer).ExecutorStats(ctx, req.(*ExecutorStatsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ControlPlane_ServiceDesc is the grpc.ServiceDesc a generated
// *_grpc.pb.go would define for this service.
var ControlPlane_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ControlPlaneServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AddTask", Handler: _ControlPlane_AddTask_Handler},
		{MethodName: "Stop", Handler: _ControlPlane_Stop_Handler},
		{MethodName: "ListWatchers", Handler: _ControlPlane_ListWatchers_Handler},
		{MethodName: "ExecutorStats", Handler: _ControlPlane_ExecutorStats_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "internal/rpc/control_plane.proto",
}

// RegisterControlPlaneServer registers srv against s, mirroring the
// generated RegisterXxxServer function.
func RegisterControlPlaneServer(s grpc.ServiceRegistrar, srv ControlPlaneServer) {
	s.RegisterService(&ControlPlane_ServiceDesc, srv)
}

// ControlPlaneClient is the client-side counterpart to ControlPlaneServer.
type ControlPlaneClient interface {
	AddTask(ctx context.Context, in *AddTaskRequest, opts ...grpc.CallOption) (*AddTaskResponse, error)
	Stop(ctx context.Context, in *StopRequest, opts ...grpc.CallOption) (*StopResponse, error)
	ListWatchers(ctx context.Context, in *ListWatchersRequest, opts ...grpc.CallOption) (*ListWatchersResponse, error)
	ExecutorStats(ctx context.Context, in *ExecutorStatsRequest, opts ...grpc.CallOption) (*ExecutorStatsResponse, error)
}

type controlPlaneClient struct {
	cc grpc.ClientConnInterface
}

// NewControlPlaneClient wraps an established connection, mirroring the
// generated NewXxxClient function.
func NewControlPlaneClient(cc grpc.ClientConnInterface) ControlPlaneClient {
	return &controlPlaneClient{cc: cc}
}

func (c *controlPlaneClient) AddTask(ctx context.Context, in *AddTaskRequest, opts ...grpc.CallOption) (*AddTaskResponse, error) {
	out := new(AddTaskResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/AddTask", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlPlaneClient) Stop(ctx context.Context, in *StopRequest, opts ...grpc.CallOption) (*StopResponse, error) {
	out := new(StopResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Stop", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlPlaneClient) ListWatchers(ctx context.Context, in *ListWatchersRequest, opts ...grpc.CallOption) (*ListWatchersResponse, error) {
	out := new(ListWatchersResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/ListWatchers", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlPlaneClient) ExecutorStats(ctx context.Context, in *ExecutorStatsRequest, opts ...grpc.CallOption) (*ExecutorStatsResponse, error) {
	out := new(ExecutorStatsResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/ExecutorStats", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
