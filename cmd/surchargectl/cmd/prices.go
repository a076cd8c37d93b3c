package cmd

import (
	"bufio"
	"context"
	"os"
	"strings"

	"fuelsurcharge/internal/activity"
	"fuelsurcharge/internal/app"
	"fuelsurcharge/internal/infra"

	"github.com/spf13/cobra"
)

var pricesYes bool

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Stored price maintenance (operator only)",
}

var pricesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every stored price record and the cached response",
	Long: `Delete every stored price record and drop the cached API response.

The next update repopulates the table from the API. Asks for confirmation
unless --yes is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !pricesYes && !confirm("Delete ALL stored price records? [y/N] ") {
			cmd.Println("aborted")
			return nil
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			n, err := a.Records.DeleteAll(ctx)
			if err != nil {
				return err
			}
			if err := a.RequireSharedState("clear cached response"); err != nil {
				cmd.PrintErrf("warning: %v\n", err)
			} else {
				a.Cache.Clear(ctx, infra.PriceCacheKey)
			}
			a.Sink.Append(ctx, activity.TypeMaintenance, "Cleared all price records", map[string]any{"deleted": n})
			cmd.Printf("deleted %d price records\n", n)
			return nil
		})
	},
}

func confirm(prompt string) bool {
	os.Stdout.WriteString(prompt)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func init() {
	pricesClearCmd.Flags().BoolVarP(&pricesYes, "yes", "y", false, "skip the confirmation prompt")
	pricesCmd.AddCommand(pricesClearCmd)
}
