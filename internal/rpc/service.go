// Package rpc exposes the explorer as the gRPC service bmmap.v1.Explorer. The
// messages are google.protobuf.Struct values holding the same fields as the
// HTTP API, so no generated code is needed on either side.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/psidex/bmmap/internal/bmmap"
	"github.com/psidex/bmmap/internal/graph"
	"github.com/psidex/bmmap/internal/lib"
)

const ServiceName = "bmmap.v1.Explorer"

// ExplorerServer is the server API of bmmap.v1.Explorer.
type ExplorerServer interface {
	Render(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Expand(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reset(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes bmmap.v1.Explorer for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ExplorerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Render", Handler: unaryHandler("Render", ExplorerServer.Render)},
		{MethodName: "Expand", Handler: unaryHandler("Expand", ExplorerServer.Expand)},
		{MethodName: "Reset", Handler: unaryHandler("Reset", ExplorerServer.Reset)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bmmap/v1/explorer.proto",
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

type unaryMethod func(ExplorerServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call unaryMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ExplorerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod(name),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ExplorerServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Service implements ExplorerServer on top of an Explorer.
type Service struct {
	logger   *slog.Logger
	explorer *bmmap.Explorer
}

var _ ExplorerServer = (*Service)(nil)

func NewService(logger *slog.Logger, explorer *bmmap.Explorer) *Service {
	if logger == nil {
		logger = lib.DiscardLogger()
	}
	return &Service{logger: logger, explorer: explorer}
}

// Render takes {"userName": string, "depth": number} and answers with the
// render result. depth defaults to 1.
func (s *Service) Render(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	name := in.GetFields()["userName"].GetStringValue()
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "userName is required")
	}
	depth := bmmap.ExpandDepth
	if v, ok := in.GetFields()["depth"]; ok {
		n, err := integer(v, "depth")
		if err != nil {
			return nil, err
		}
		depth = n
	}

	res, err := s.explorer.Render(name, depth)
	if err != nil {
		return nil, s.statusOf(err)
	}
	return toStruct(res)
}

// Expand takes {"userId": number}.
func (s *Service) Expand(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	v, ok := in.GetFields()["userId"]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "userId is required")
	}
	id, err := integer(v, "userId")
	if err != nil {
		return nil, err
	}

	res, err := s.explorer.Expand(id)
	if err != nil {
		return nil, s.statusOf(err)
	}
	return toStruct(res)
}

// Reset ignores its input and answers with the session stats.
func (s *Service) Reset(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	s.explorer.Reset()
	return toStruct(s.explorer.Stats())
}

func integer(v *structpb.Value, field string) (int, error) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", field)
	}
	return int(n.NumberValue), nil
}

func (s *Service) statusOf(err error) error {
	switch {
	case errors.Is(err, graph.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, graph.ErrInvalidDepth):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		s.logger.Error("explorer call failed", "error", err)
		return status.Error(codes.Internal, err.Error())
	}
}

// toStruct goes through JSON so the Struct carries the same field names as the
// HTTP responses.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
