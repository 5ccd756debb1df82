package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"nlsql/internal/logging"
	"nlsql/internal/web"
)

var serveAddr string

// serveCmd runs the web interface
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the question form and results page",
	Long: `Starts the HTTP server:

  GET  /         question form
  POST /query    translate, check and run the question in field nl_query
  GET  /healthz  liveness probe
  GET  /metrics  Prometheus metrics (server.metrics_enabled)

The server stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr, NLSQL_ADDR and PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		logging.BootError("startup failed: %v", err)
		return err
	}
	defer a.Close()

	renderer, err := web.NewRenderer(cfg.Server.TemplateDir)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: web.NewServer(a.pipeline, renderer, web.Options{
			Title:          web.DefaultTitle,
			MetricsEnabled: cfg.Server.MetricsEnabled,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Boot("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logging.Boot("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.Server.ReloadTemplates {
		g.Go(func() error {
			return renderer.Watch(gctx)
		})
	}

	return g.Wait()
}
