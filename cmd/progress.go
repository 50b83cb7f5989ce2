package main

import (
	"context"
	"fmt"

	"github.com/UnknownOlympus/paperroute/internal/app"
	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Inspect or change delivery progress",
}

var progressListCmd = &cobra.Command{
	Use:   "list",
	Short: "List completed deliveries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), true, func(_ context.Context, application *app.App) error {
			out := cmd.OutOrStdout()
			for _, id := range application.Completed() {
				delivery, err := application.Delivery(id)
				if err != nil {
					fmt.Fprintf(out, "%s\t(not on the current route)\n", id)
					continue
				}
				fmt.Fprintf(out, "%s\t%s %s, %s\t%s\n",
					id, delivery.Street, delivery.HouseNumber, delivery.City, delivery.Newspaper)
			}

			stats := application.Stats()
			fmt.Fprintf(out, "%d/%d delivered (%.0f%%), %d remaining\n",
				stats.Completed, stats.Total, stats.Percentage, stats.Remaining)

			return nil
		})
	},
}

var progressToggleCmd = &cobra.Command{
	Use:   "toggle <delivery-id>",
	Short: "Mark a delivery as done, or undo it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), true, func(ctx context.Context, application *app.App) error {
			done, err := application.Toggle(ctx, args[0])
			if err != nil {
				return err
			}

			state := "not delivered"
			if done {
				state = "delivered"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], state)

			return nil
		})
	},
}

var progressResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget all completed deliveries (the geocode cache is kept)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), false, func(ctx context.Context, application *app.App) error {
			if err := application.Reset(ctx); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "progress reset")

			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(progressCmd)
	progressCmd.AddCommand(progressListCmd, progressToggleCmd, progressResetCmd)
}
