package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/certlab/mixlaunch/internal/config"
	"github.com/certlab/mixlaunch/internal/launch"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		// A trainer that ran and failed gets its exit status propagated, so
		// shell scripts wrapping mixlaunch see the trainer's own code.
		var exitErr *launch.ExitError
		if errors.As(err, &exitErr) {
			if exitErr.Killed || exitErr.Code < 0 {
				os.Exit(130)
			}
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mixlaunch",
		Short: "Launcher for certified-robustness training runs",
		Long: `mixlaunch maps named training presets (IBP, expressive-loss IBP, SABR,
TAPS) onto invocations of an external trainer, pins each run to a single
accelerator via CUDA_VISIBLE_DEVICES, and records run outcomes.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default ~/.mixlaunch/config.yaml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newLaunchCmd(),
		newPresetsCmd(),
		newRunsCmd(),
		newDevicesCmd(),
		newConfigCmd(),
		newMCPServerCmd(),
	)

	return rootCmd
}

// loadConfig resolves the effective configuration for a command, honoring
// the global --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFrom(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
