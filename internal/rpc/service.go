package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// #region names
const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "resonance.v1.ResonanceService"

	recalculateMethod = "/" + ServiceName + "/Recalculate"
	getScoreMethod    = "/" + ServiceName + "/GetScore"
	recordMatchMethod = "/" + ServiceName + "/RecordMatch"
)

// #endregion names

// #region server-api
// ResonanceServer is the server API for the resonance service.
// Messages are protobuf well-known types so no generated code is needed.
type ResonanceServer interface {
	// Recalculate recomputes every score and reports the run summary.
	Recalculate(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// GetScore returns the dashboard stats for an agent id.
	GetScore(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// RecordMatch stores a match between agent_a and agent_b and returns its id.
	RecordMatch(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
}

// RegisterResonanceServer registers srv on s.
func RegisterResonanceServer(s grpc.ServiceRegistrar, srv ResonanceServer) {
	s.RegisterService(&ResonanceServiceDesc, srv)
}

// ResonanceServiceDesc describes the resonance service for grpc.Server.
var ResonanceServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ResonanceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Recalculate", Handler: recalculateHandler},
		{MethodName: "GetScore", Handler: getScoreHandler},
		{MethodName: "RecordMatch", Handler: recordMatchHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "resonance/v1/resonance.proto",
}

func recalculateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ResonanceServer).Recalculate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: recalculateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ResonanceServer).Recalculate(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getScoreHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ResonanceServer).GetScore(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getScoreMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ResonanceServer).GetScore(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func recordMatchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ResonanceServer).RecordMatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: recordMatchMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ResonanceServer).RecordMatch(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// #endregion server-api

// #region client-api
// ResonanceClient is the client API for the resonance service.
type ResonanceClient interface {
	Recalculate(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetScore(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	RecordMatch(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
}

type resonanceClient struct {
	cc grpc.ClientConnInterface
}

// NewResonanceClient returns a client bound to cc.
func NewResonanceClient(cc grpc.ClientConnInterface) ResonanceClient {
	return &resonanceClient{cc: cc}
}

func (c *resonanceClient) Recalculate(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, recalculateMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *resonanceClient) GetScore(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getScoreMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *resonanceClient) RecordMatch(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, recordMatchMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// #endregion client-api
