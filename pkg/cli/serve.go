package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/getmockd/intercept/pkg/config"
	"github.com/getmockd/intercept/pkg/engine"
	"github.com/getmockd/intercept/pkg/metrics"
)

const shutdownTimeout = 5 * time.Second

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	addr        string
	origin      string
	routeByHost bool
	upstream    string
	metricsPath string
}

var serveOpts serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the configured routes over HTTP",
	Long: `Serve answers inbound HTTP requests from the configured routes.

Requests are matched as if they had been sent to --origin, which defaults to
the configuration's baseURL. With --route-by-host the request's Host header
selects the routes instead. Passthrough routes are proxied to --upstream;
without one they are answered with 502 Bad Gateway. Unhandled requests get
404 Not Found.

Prometheus metrics are served on --metrics-path unless it is empty.`,
	Example: `  # Serve ./intercept.yaml on :8080
  intercept serve

  # Proxy passthrough routes to a staging backend
  intercept serve -f api.yaml --addr :9000 --upstream https://staging.example.com`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cmd, cfg, serveOpts)
	},
}

// server is a configured engine plus the HTTP handler in front of it.
type server struct {
	engine  *engine.Engine
	handler http.Handler
	log     *slog.Logger
}

// newServer builds the engine for cfg and the HTTP handler serving it.
func newServer(cfg *config.Config, f serveFlags, reg *prometheus.Registry) (*server, error) {
	log := cfg.Logger()

	var opts []engine.Option
	if reg != nil {
		opts = append(opts, engine.WithRecorder(metrics.New(reg)))
	}
	e, err := newEngine(cfg, append(opts, engine.WithLogger(log))...)
	if err != nil {
		return nil, err
	}

	sc := engine.ServeConfig{}
	if !f.routeByHost {
		sc.Origin = originFor(cfg, f)
	}
	if f.upstream != "" {
		u, err := url.Parse(f.upstream)
		if err != nil || u.Scheme == "" || u.Host == "" {
			_ = e.Shutdown()
			return nil, fmt.Errorf("invalid --upstream %q: must be an absolute URL", f.upstream)
		}
		sc.Passthrough = httputil.NewSingleHostReverseProxy(u)
	}

	h, err := e.HTTPHandler(sc)
	if err != nil {
		_ = e.Shutdown()
		return nil, fmt.Errorf("invalid --origin %q: %w", sc.Origin, err)
	}

	mux := http.NewServeMux()
	if reg != nil && f.metricsPath != "" {
		mux.Handle(f.metricsPath, metrics.Handler(reg))
	}
	mux.Handle("/", h)

	return &server{engine: e, handler: mux, log: log}, nil
}

func originFor(cfg *config.Config, f serveFlags) string {
	switch {
	case f.origin != "":
		return f.origin
	case cfg.BaseURL != "":
		return cfg.BaseURL
	default:
		return engine.DefaultBaseURL
	}
}

// runServe serves until ctx is done, then shuts the listener and the
// engine down.
func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config, f serveFlags) error {
	reg := prometheus.NewRegistry()
	srv, err := newServer(cfg, f, reg)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", f.addr)
	if err != nil {
		_ = srv.engine.Shutdown()
		return fmt.Errorf("listening on %s: %w", f.addr, err)
	}

	httpServer := &http.Server{
		Handler:           srv.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %d routes on http://%s\n", len(srv.engine.Routes()), ln.Addr())
	srv.log.Info("serving fixtures", "addr", ln.Addr().String(), "config", cfg.Path())

	select {
	case <-ctx.Done():
	case err := <-errCh:
		_ = srv.engine.Shutdown()
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	serverErr := httpServer.Shutdown(shutdownCtx)
	if errors.Is(serverErr, context.DeadlineExceeded) {
		// Manual responses never resolve here; closing cancels their
		// request contexts, which aborts them in the engine.
		srv.log.Warn("closing connections still open after shutdown timeout", "timeout", shutdownTimeout)
		serverErr = httpServer.Close()
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		serverErr = errors.Join(serverErr, err)
	}
	return errors.Join(serverErr, srv.engine.Shutdown())
}

func init() {
	serveCmd.Flags().StringVar(&serveOpts.addr, "addr", ":8080", "Address to listen on")
	serveCmd.Flags().StringVar(&serveOpts.origin, "origin", "", "Origin requests are matched as (default: baseURL from the config)")
	serveCmd.Flags().BoolVar(&serveOpts.routeByHost, "route-by-host", false, "Select routes by the request's Host header instead of --origin")
	serveCmd.Flags().StringVar(&serveOpts.upstream, "upstream", "", "Upstream URL for passthrough routes")
	serveCmd.Flags().StringVar(&serveOpts.metricsPath, "metrics-path", "/metrics", "Path serving Prometheus metrics (empty disables)")
	rootCmd.AddCommand(serveCmd)
}
