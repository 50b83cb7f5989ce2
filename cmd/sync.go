package main

import (
	"context"
	"fmt"

	"github.com/UnknownOlympus/paperroute/internal/app"
	"github.com/UnknownOlympus/paperroute/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download the route and geocode every address once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), false, func(ctx context.Context, application *app.App) error {
			result, err := application.Refresh(ctx)
			if err != nil {
				return explain(err)
			}

			stats := application.Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "route loaded from %s (changed: %t)\n", result.Source, result.Changed)
			fmt.Fprintf(out, "geocoding: %d new, %d cached, %d failed\n",
				result.Geocoding.Resolved, result.Geocoding.Cached, result.Geocoding.Failed)
			fmt.Fprintf(out, "progress: %d/%d delivered\n", stats.Completed, stats.Total)

			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

// withApp builds and opens the app for a one-shot command. With loadRoute the
// route is loaded as well.
func withApp(ctx context.Context, loadRoute bool, run func(context.Context, *app.App) error) error {
	cfg := config.MustLoad()
	logger := setupLogger(cfg.Env)

	application, err := buildApp(ctx, cfg, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer application.Close()

	if !loadRoute {
		application.Open(ctx)
	} else if err = application.Start(ctx); err != nil {
		return explain(err)
	}

	return run(ctx, application)
}
