package cmd

import (
	"context"
	"time"

	"fuelsurcharge/internal/app"

	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Inspect or change the automatic update trigger",
	Long: `Inspect or change the automatic update trigger.

The trigger lives in Redis, shared with the server. These commands refuse to
run when REDIS_URL is not set.`,
}

var scheduleShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the next scheduled update",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.RequireSharedState("schedule show"); err != nil {
				return err
			}
			return printNextRun(ctx, cmd, a)
		})
	},
}

var scheduleApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Recompute the next run from the stored settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.RequireSharedState("schedule apply"); err != nil {
				return err
			}
			if err := a.Scheduler.ScheduleUpdate(ctx); err != nil {
				return err
			}
			return printNextRun(ctx, cmd, a)
		})
	},
}

var scheduleClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the automatic update trigger",
	Long: `Remove the automatic update trigger. A running server keeps its trigger
loop but has nothing to fire until the schedule is applied again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.RequireSharedState("schedule clear"); err != nil {
				return err
			}
			if err := a.Scheduler.ClearScheduledUpdate(ctx); err != nil {
				return err
			}
			cmd.Println("scheduled update cleared")
			return nil
		})
	},
}

func printNextRun(ctx context.Context, cmd *cobra.Command, a *app.App) error {
	next, ok, err := a.Scheduler.NextScheduledUpdate(ctx)
	if err != nil {
		return err
	}
	if !ok {
		cmd.Println("no update scheduled")
		return nil
	}
	cmd.Printf("next update: %s (%s)\n", next.In(a.Scheduler.Location()).Format(time.RFC1123), a.Scheduler.Location())
	return nil
}

func init() {
	scheduleCmd.AddCommand(scheduleShowCmd)
	scheduleCmd.AddCommand(scheduleApplyCmd)
	scheduleCmd.AddCommand(scheduleClearCmd)
}
