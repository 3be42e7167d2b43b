package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:   "garage-door",
		Short: "Monitor a garage door and serve door commands over HTTPS.",
		Long: `Polls the door contact once per tick, pushes state changes and
open-too-long alerts to the configured notifiers, and executes door
commands received on GET /garage/<action> one at a time.

Settings are read from configs/config.yml (or --config) and GARAGE_*
environment variables.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, configPath)
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information.",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "garage-door", version)
		},
	}
)

// Execute runs the CLI and exits with non-zero status on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "garage-door:", err)
		os.Exit(1)
	}
}

//nolint:gochecknoinits // cobra wiring
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (default: configs/config.yml, /etc/garage-door/config.yml)")
	rootCmd.AddCommand(versionCmd)
}
