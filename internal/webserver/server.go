// Package webserver serves the explorer page, its JSON API and the websocket
// that keeps open pages in sync with the display.
package webserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/netutil"

	"github.com/psidex/bmmap/internal/bmmap"
	"github.com/psidex/bmmap/internal/config"
	"github.com/psidex/bmmap/internal/display/visws"
	"github.com/psidex/bmmap/internal/lib"
	"github.com/psidex/bmmap/internal/metrics"
)

// Server holds the HTTP handlers of one explorer.
type Server struct {
	logger      *slog.Logger
	explorer    *bmmap.Explorer
	broadcaster *visws.Broadcaster
	metrics     *metrics.Metrics
	gatherer    prometheus.Gatherer
	title       string
	upgrader    websocket.Upgrader

	// wsWriteTimeout bounds every write to a websocket client.
	wsWriteTimeout time.Duration
}

// New builds a Server. broadcaster must be one of the displays the explorer
// renders to, otherwise websocket clients never see an update. A nil gatherer
// serves the default Prometheus registry.
func New(
	logger *slog.Logger,
	explorer *bmmap.Explorer,
	broadcaster *visws.Broadcaster,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	title string,
) *Server {
	if logger == nil {
		logger = lib.DiscardLogger()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		logger:         logger,
		explorer:       explorer,
		broadcaster:    broadcaster,
		metrics:        m,
		gatherer:       gatherer,
		title:          title,
		wsWriteTimeout: lib.DefaultWriteTimeout,
		upgrader: websocket.Upgrader{
			// The page may be opened through a proxy or from a saved file.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// SetWebsocketWriteTimeout changes how long a websocket client may take to
// accept an update before it is dropped.
func (s *Server) SetWebsocketWriteTimeout(d time.Duration) {
	s.wsWriteTimeout = d
}

// Handler returns the routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.page)
	mux.HandleFunc("POST /api/render", s.render)
	mux.HandleFunc("POST /api/expand", s.expand)
	mux.HandleFunc("POST /api/reset", s.reset)
	mux.HandleFunc("GET /api/display", s.snapshot)
	mux.HandleFunc("GET /api/stats", s.stats)
	mux.HandleFunc("GET /ws", s.session)
	mux.HandleFunc("GET /healthz", s.healthz)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return logRequests(s.logger, mux)
}

// ServeListener serves h on lis until ctx is done, then shuts the server down
// gracefully within cfg.ShutdownTimeout. lis is closed on return.
func ServeListener(ctx context.Context, logger *slog.Logger, lis net.Listener, cfg config.HTTPConfig, h http.Handler) error {
	if logger == nil {
		logger = lib.DiscardLogger()
	}
	if cfg.MaxConnections > 0 {
		lis = netutil.LimitListener(lis, cfg.MaxConnections)
	}

	srv := &http.Server{
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout.Duration,
		WriteTimeout: cfg.WriteTimeout.Duration,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "address", lis.Addr().String())
		errc <- srv.Serve(lis)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("http serve: %w", err)
	case <-ctx.Done():
	}

	timeout := cfg.ShutdownTimeout.Duration
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http serve: %w", err)
	}
	return nil
}
