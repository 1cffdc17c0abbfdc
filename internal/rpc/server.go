package rpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/psidex/bmmap/internal/lib"
)

// NewServer returns a grpc.Server serving svc and the standard health service.
func NewServer(logger *slog.Logger, svc ExplorerServer) *grpc.Server {
	if logger == nil {
		logger = lib.DiscardLogger()
	}

	s := grpc.NewServer(grpc.UnaryInterceptor(logCalls(logger)))
	s.RegisterService(&ServiceDesc, svc)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)

	return s
}

// Serve runs s on lis until ctx is done, then stops it gracefully.
func Serve(ctx context.Context, logger *slog.Logger, s *grpc.Server, lis net.Listener) error {
	if logger == nil {
		logger = lib.DiscardLogger()
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("grpc server listening", "address", lis.Addr().String())
		errc <- s.Serve(lis)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("grpc server shutting down")
	s.GracefulStop()
	return <-errc
}

func logCalls(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("grpc call",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration", time.Since(start),
		)
		return resp, err
	}
}
