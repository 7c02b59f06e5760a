package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/petasbytes/minutes-agent/internal/metrics"
	"github.com/petasbytes/minutes-agent/internal/telemetry"
	"github.com/petasbytes/minutes-agent/internal/web"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web chat page and JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			cfg.Listen = listen
		}
		logger := telemetry.NewLogger(cmd.ErrOrStderr(), telemetry.ParseLevel(cfg.LogLevel))
		telemetry.SetLogger(logger)

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a, err := newAgent(cfg, logger, metrics.NewCollector(reg))
		if err != nil {
			return err
		}

		ws := web.NewServer(web.Config{
			Sessions: a.sessions,
			Minutes:  a.minutes,
			Gatherer: reg,
			Logger:   logger,
		})
		srv := &http.Server{
			Addr:              cfg.Listen,
			Handler:           ws.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		sweepCtx, stopSweep := context.WithCancel(cmd.Context())
		defer stopSweep()
		if cfg.SessionTTL > 0 {
			go sweepIdle(sweepCtx, ws, cfg.SessionTTL)
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting server", "addr", srv.Addr, "provider", cfg.Provider)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err

		case sig := <-shutdown:
			logger.Info("shutting down", "signal", sig.String())
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
				return srv.Close()
			}
			logger.Info("server stopped")
			return nil
		}
	},
}

// sweepIdle expires idle web sessions until ctx is done.
func sweepIdle(ctx context.Context, ws *web.Server, ttl time.Duration) {
	interval := ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			ws.Sweep(ttl)
		}
	}
}

func init() {
	serveCmd.Flags().String("listen", "", "Address to listen on (overrides config listen)")
	rootCmd.AddCommand(serveCmd)
}
