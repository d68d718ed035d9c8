package service

import (
	"context"

	"google.golang.org/grpc"
)

const (
	serviceName     = "generalize.Generalizer"
	calculateMethod = "/" + serviceName + "/CalculateRemovableSegments"
	applyMethod     = "/" + serviceName + "/ApplySegmentRemoval"
	clearMethod     = "/" + serviceName + "/ClearSession"
)

// GeneralizerServer is the two-phase generalize service.
type GeneralizerServer interface {
	CalculateRemovableSegments(context.Context, *CalculateRequest) (*CalculateResponse, error)
	ApplySegmentRemoval(context.Context, *ApplyRequest) (*ApplyResponse, error)
	ClearSession(context.Context, *ClearRequest) (*ClearResponse, error)
}

// RegisterGeneralizerServer registers srv with a gRPC server.
func RegisterGeneralizerServer(s grpc.ServiceRegistrar, srv GeneralizerServer) {
	s.RegisterService(&generalizerServiceDesc, srv)
}

var generalizerServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*GeneralizerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CalculateRemovableSegments", Handler: calculateHandler},
		{MethodName: "ApplySegmentRemoval", Handler: applyHandler},
		{MethodName: "ClearSession", Handler: clearHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "generalize.json",
}

func calculateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CalculateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GeneralizerServer).CalculateRemovableSegments(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: calculateMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(GeneralizerServer).CalculateRemovableSegments(ctx, req.(*CalculateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func applyHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ApplyRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GeneralizerServer).ApplySegmentRemoval(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: applyMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(GeneralizerServer).ApplySegmentRemoval(ctx, req.(*ApplyRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func clearHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ClearRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GeneralizerServer).ClearSession(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: clearMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(GeneralizerServer).ClearSession(ctx, req.(*ClearRequest))
	}
	return interceptor(ctx, in, info, handler)
}
