// Package cmd provides the operator commands of surchargectl.
package cmd

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"fuelsurcharge/internal/app"
	"fuelsurcharge/internal/config"
	"fuelsurcharge/internal/logging"

	"github.com/spf13/cobra"
)

var (
	verbose bool
	timeout time.Duration
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "surchargectl",
	Short: "Operate the diesel fuel surcharge service",
	Long: `surchargectl runs maintenance tasks against the same database and Redis
the server uses. Configuration comes from the environment (or .env).

Examples:
  surchargectl update --force
  surchargectl schedule show
  surchargectl token --subject ops --role admin --ttl 24h`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetOut(os.Stdout)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall deadline for the command")

	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(connectionTestCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(pricesCmd)
	rootCmd.AddCommand(tokenCmd)
}

// loadConfig reads the environment and installs the logger.
func loadConfig() (*config.Config, io.Closer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	closer := logging.Setup(logging.Options{Env: cfg.Env, Level: level, File: cfg.LogFile})
	return cfg, closer, nil
}

// withApp builds the service graph, runs fn under the command deadline and
// tears everything down again.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, closer, err := loadConfig()
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
