package acquisition

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region service-desc
// WindowServer is the server side of the acquisition bridge.
type WindowServer interface {
	Describe(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetWindow(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterWindowServer registers srv on s.
func RegisterWindowServer(s grpc.ServiceRegistrar, srv WindowServer) {
	s.RegisterService(&windowServiceDesc, srv)
}

var windowServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WindowServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Describe", Handler: describeHandler},
		{MethodName: "GetWindow", Handler: getWindowHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "eeg/acquisition/v1/acquisition.proto",
}

func describeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WindowServer).Describe(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: describeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(WindowServer).Describe(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getWindowHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WindowServer).GetWindow(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getWindowMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(WindowServer).GetWindow(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// #endregion service-desc

// #region source-server
// SourceServer exposes a local Source over the bridge protocol.
type SourceServer struct {
	src      Source
	channels []string
}

// NewSourceServer serves src, advertising channels in Describe.
func NewSourceServer(src Source, channels []string) *SourceServer {
	return &SourceServer{src: src, channels: channels}
}

func (s *SourceServer) Describe(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	chans := make([]any, len(s.channels))
	for i, c := range s.channels {
		chans[i] = c
	}
	resp, err := structpb.NewStruct(map[string]any{
		"sampling_rate": s.src.SamplingRate(),
		"channels":      chans,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "describe: %v", err)
	}
	return resp, nil
}

func (s *SourceServer) GetWindow(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	channel := req.GetFields()["channel"].GetStringValue()
	limit := int(req.GetFields()["max_samples"].GetNumberValue())

	w, err := s.src.Window(ctx, channel)
	switch {
	case errors.Is(err, ErrInsufficient):
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrUnknownChannel):
		return nil, status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrNotStarted):
		return nil, status.Error(codes.Unavailable, err.Error())
	case err != nil:
		return nil, status.Error(codes.Internal, err.Error())
	}

	samples := w.Samples
	if limit > 0 && len(samples) > limit {
		samples = samples[len(samples)-limit:]
	}
	values := make([]*structpb.Value, len(samples))
	for i, v := range samples {
		values[i] = structpb.NewNumberValue(v)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"channel":       structpb.NewStringValue(w.Channel),
		"sampling_rate": structpb.NewNumberValue(float64(w.SamplingRate)),
		"samples":       structpb.NewListValue(&structpb.ListValue{Values: values}),
	}}, nil
}

// #endregion source-server
