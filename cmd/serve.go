package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/paperroute/internal/app"
	"github.com/UnknownOlympus/paperroute/internal/config"
	"github.com/UnknownOlympus/paperroute/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	readTimeout     = 5 * time.Second
	writeTimeout    = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the route and serve it over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Create a context that will be canceled when an interrupt signal is received.
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg := config.MustLoad()
		logger := setupLogger(cfg.Env)

		// Create a separate registry for metrics.
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		application, err := buildApp(ctx, cfg, logger, reg)
		if err != nil {
			return err
		}
		defer application.Close()

		if err = application.Start(ctx); err != nil {
			return explain(err)
		}

		go application.Geocode(ctx)

		if cfg.RefreshSchedule != "" {
			scheduler, err := startScheduler(ctx, logger, application, cfg.RefreshSchedule)
			if err != nil {
				return err
			}
			defer scheduler.Stop()
		}

		srv := server.New(ctx, logger, application, reg, server.Options{
			AllowedOrigins:  cfg.AllowedOrigins,
			RefreshInterval: cfg.RefreshRate,
		})

		logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

		return runServer(ctx, logger, srv, cfg.Port)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Int("port", 0, "HTTP listen port (env PAPERROUTE_PORT)")
	_ = viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
}

// startScheduler refreshes the route on the given cron schedule.
func startScheduler(ctx context.Context, logger *slog.Logger, application *app.App, spec string) (*cron.Cron, error) {
	scheduler := cron.New()
	_, err := scheduler.AddFunc(spec, func() {
		result, err := application.Refresh(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Scheduled refresh failed", "error", err)
			return
		}
		logger.InfoContext(ctx, "Scheduled refresh finished", "changed", result.Changed, "new", result.Geocoding.Resolved)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}

	scheduler.Start()
	logger.InfoContext(ctx, "Scheduled refresh enabled", "schedule", spec)

	return scheduler, nil
}

// runServer serves handler until ctx is canceled, then shuts down gracefully.
func runServer(ctx context.Context, logger *slog.Logger, handler http.Handler, port int) error {
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "Starting HTTP server", "port", port)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}

	logger.InfoContext(ctx, "Application stopped gracefully.")

	return nil
}
