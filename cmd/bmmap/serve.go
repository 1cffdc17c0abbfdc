package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/psidex/bmmap/internal/bmmap"
	"github.com/psidex/bmmap/internal/display"
	"github.com/psidex/bmmap/internal/display/vis"
	"github.com/psidex/bmmap/internal/display/visws"
	"github.com/psidex/bmmap/internal/metrics"
	"github.com/psidex/bmmap/internal/rpc"
	"github.com/psidex/bmmap/internal/webserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive explorer over HTTP and gRPC",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	addSourceFlags(serveCmd)
	serveCmd.Flags().StringP("address", "b", "", "the ip:port to bind the webserver to")
	serveCmd.Flags().String("grpc-address", "", "the ip:port to bind the gRPC server to, \"off\" disables it")
	serveCmd.Flags().Int("max-connections", 0, "maximum concurrent HTTP connections")
	serveCmd.Flags().String("title", "", "page title")
}

func applyServeFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("address") {
		cfg.HTTP.Address, _ = cmd.Flags().GetString("address")
	}
	if cmd.Flags().Changed("grpc-address") {
		cfg.GRPC.Address, _ = cmd.Flags().GetString("grpc-address")
		if cfg.GRPC.Address == "off" {
			cfg.GRPC.Address = ""
		}
	}
	if cmd.Flags().Changed("max-connections") {
		cfg.HTTP.MaxConnections, _ = cmd.Flags().GetInt("max-connections")
	}
	if cmd.Flags().Changed("title") {
		cfg.HTTP.Title, _ = cmd.Flags().GetString("title")
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	applySourceFlags(cmd)
	applyServeFlags(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, err := loadGraph(ctx)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	broadcaster := visws.NewBroadcaster(logger)
	d := display.Tee{vis.NewDataSet(cfg.HTTP.Title), broadcaster}
	exp := bmmap.NewExplorer(logger, g, d, m)

	web := webserver.New(logger, exp, broadcaster, m, reg, cfg.HTTP.Title)
	web.SetWebsocketWriteTimeout(cfg.HTTP.WebsocketWriteTimeout.Duration)

	httpLis, grpcLis, err := listen(cfg.HTTP.Address, cfg.GRPC.Address)
	if err != nil {
		return err
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return webserver.ServeListener(ctx, logger, httpLis, cfg.HTTP, web.Handler())
	})
	if grpcLis != nil {
		srv := rpc.NewServer(logger, rpc.NewService(logger, exp))
		group.Go(func() error {
			return rpc.Serve(ctx, logger, srv, grpcLis)
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("stopped")
	return nil
}

// listen opens the HTTP listener and, unless grpcAddress is empty, the gRPC
// one. On error nothing is left open, so a bad address fails the command before
// anything is served.
func listen(httpAddress, grpcAddress string) (httpLis, grpcLis net.Listener, err error) {
	httpLis, err = net.Listen("tcp", httpAddress)
	if err != nil {
		return nil, nil, fmt.Errorf("http listen: %w", err)
	}
	if grpcAddress == "" {
		return httpLis, nil, nil
	}
	grpcLis, err = net.Listen("tcp", grpcAddress)
	if err != nil {
		httpLis.Close()
		return nil, nil, fmt.Errorf("grpc listen: %w", err)
	}
	return httpLis, grpcLis, nil
}
