package cmd

import (
	"context"
	"fmt"
	"time"

	"fuelsurcharge/internal/app"

	"github.com/spf13/cobra"
)

var updateForce bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Fetch the latest diesel prices and store them",
	Long: `Run the update pipeline once, exactly like a scheduled run.

A cached response younger than the configured TTL is reused unless --force
is given. The outcome is printed as JSON; a failed run exits non-zero.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			out := a.Updates.Run(ctx, updateForce)
			if err := printJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if !out.Success {
				return fmt.Errorf("update failed: %s", out.Error)
			}
			return nil
		})
	},
}

var connectionTestCmd = &cobra.Command{
	Use:   "connection-test",
	Short: "Probe the EIA API once with a single-row request",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			res := a.Updates.TestConnection(ctx)
			cmd.Printf("%s (status %d, %s)\n", res.Message, res.StatusCode, res.Latency.Round(time.Millisecond))
			if !res.Success {
				return fmt.Errorf("connection test failed: %s", res.Message)
			}
			return nil
		})
	},
}

func init() {
	updateCmd.Flags().BoolVar(&updateForce, "force", false, "skip the response cache")
}
