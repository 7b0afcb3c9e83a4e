package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/certlab/mixlaunch/internal/config"
	"github.com/certlab/mixlaunch/internal/launch"
	"github.com/certlab/mixlaunch/internal/logging"
	"github.com/certlab/mixlaunch/internal/presets"
	"github.com/certlab/mixlaunch/internal/runcfg"
	"github.com/certlab/mixlaunch/internal/store"
)

func newLaunchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch <preset>",
		Short: "Launch a training run from a preset",
		Long: `Launch the external trainer with the configuration of the named preset.

The run is pinned to one accelerator via CUDA_VISIBLE_DEVICES and blocks
until the trainer exits. mixlaunch exits with the trainer's own exit code,
so wrapping scripts can react to training failures directly.

Examples:
  mixlaunch launch expibp_mnist
  mixlaunch launch sabr_cifar10 --gpu 1 --tag "lr sweep"
  mixlaunch launch taps_mnist --set train-eps=0.2 --set restarts=3
  mixlaunch launch ibp_mnist --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			gpu, _ := cmd.Flags().GetInt("gpu")
			overrides, _ := cmd.Flags().GetStringArray("set")
			tag, _ := cmd.Flags().GetString("tag")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			jsonOut, _ := cmd.Flags().GetBool("json")

			if !cmd.Flags().Changed("gpu") {
				gpu = cfg.Launcher.DefaultGPU
			}

			p, err := resolvePreset(cfg, args[0])
			if err != nil {
				return err
			}
			if err := applyOverrides(&p.Config, overrides); err != nil {
				return err
			}

			id := fmt.Sprintf("r-%d", time.Now().UnixNano())

			// Give the trainer a save directory unless the preset or an
			// override pinned one already.
			if cfg.Trainer.SaveRoot != "" && p.Config.GetString("save-dir") == "" {
				p.Config.Set("save-dir", filepath.Join(cfg.Trainer.SaveRoot, p.Name, id))
			}

			logger := logging.NewLogger(cfg.Logging.Level, os.Stderr)
			launcher := launch.New(cfg.Trainer.Python, cfg.Trainer.Script, logger)
			spec := launch.Spec{Args: p.Config.Args(), GPU: gpu}

			if dryRun {
				return printDryRun(jsonOut, launcher.Command(spec), launch.Env(spec))
			}

			stateDir, err := cfg.StateDir()
			if err != nil {
				return err
			}
			logDir := filepath.Join(stateDir, "logs")
			if err := os.MkdirAll(logDir, 0755); err != nil {
				return fmt.Errorf("creating log directory: %w", err)
			}
			spec.LogPath = filepath.Join(logDir, id+".log")

			runs, err := store.Open(stateDir)
			if err != nil {
				return err
			}
			defer runs.Close()

			run := store.Run{
				ID:        id,
				Preset:    p.Name,
				Dataset:   p.Config.GetString("dataset"),
				Net:       p.Config.GetString("net"),
				GPU:       gpu,
				Command:   launcher.Command(spec),
				Params:    p.Config.Params(),
				SaveDir:   p.Config.GetString("save-dir"),
				Tag:       tag,
				Status:    store.StatusRunning,
				StartedAt: time.Now().UTC(),
			}
			// Recorded before spawning so a crashed launcher still leaves a
			// row to inspect.
			if err := runs.Record(cmd.Context(), run); err != nil {
				return err
			}

			events := logging.NewEventLogger(stateDir, cfg.Logging.Level)
			defer events.Close()
			events.Log(map[string]any{
				"event":  "launched",
				"run_id": id,
				"preset": p.Name,
				"gpu":    gpu,
				"argv":   strings.Join(run.Command, " "),
			})

			logger.Info("launching trainer",
				"run_id", id,
				"preset", p.Name,
				"gpu", gpu,
				"log", spec.LogPath)

			// An interrupt cancels the run context, which kills the trainer;
			// the run is then finalized as killed rather than left dangling.
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			sigChan := make(chan os.Signal, 1)
			notifySignals(sigChan)
			go func() {
				<-sigChan
				cancel()
			}()

			launchErr := launcher.Launch(ctx, spec)

			status, exitCode := runOutcome(launchErr)
			if err := runs.Finalize(context.Background(), id, status, exitCode); err != nil {
				logger.Error("finalizing run", "run_id", id, "error", err)
			}
			events.Log(map[string]any{
				"event":  "finished",
				"run_id": id,
				"status": status,
			})

			if launchErr == nil {
				logger.Info("trainer finished", "run_id", id)
			}
			return launchErr
		},
	}

	cmd.Flags().Int("gpu", 0, "Accelerator index to pin the run to (default: configured default_gpu)")
	cmd.Flags().StringArray("set", nil, "Override a parameter as name=value (repeatable; empty value removes)")
	cmd.Flags().String("tag", "", "Free-form label recorded with the run")
	cmd.Flags().Bool("dry-run", false, "Print the trainer command without launching it")

	return cmd
}

// buildRegistry assembles the preset registry: built-ins overlaid with user
// presets from the state directory.
func buildRegistry(cfg *config.Config) (*presets.Registry, error) {
	registry := presets.NewRegistry()
	presetDir, err := cfg.PresetDir()
	if err != nil {
		return nil, err
	}
	if err := registry.LoadDir(presetDir); err != nil {
		return nil, fmt.Errorf("loading user presets: %w", err)
	}
	return registry, nil
}

// resolvePreset returns a mutable copy of the named preset.
func resolvePreset(cfg *config.Config, name string) (presets.Preset, error) {
	registry, err := buildRegistry(cfg)
	if err != nil {
		return presets.Preset{}, err
	}
	return registry.Get(name)
}

// applyOverrides applies --set flags to a configuration in order. An
// override with an empty value removes the parameter.
func applyOverrides(cfg *runcfg.Config, overrides []string) error {
	for _, o := range overrides {
		name, value, err := runcfg.ParseOverride(o)
		if err != nil {
			return err
		}
		if value == nil {
			cfg.Delete(name)
			continue
		}
		cfg.Set(name, value)
	}
	return nil
}

// runOutcome maps a launch result to the recorded run status and exit code.
func runOutcome(err error) (string, *int) {
	if err == nil {
		zero := 0
		return store.StatusFinished, &zero
	}
	if exitErr, ok := err.(*launch.ExitError); ok {
		if exitErr.Killed {
			return store.StatusKilled, nil
		}
		code := exitErr.Code
		return store.StatusFailed, &code
	}
	// Trainer never started
	return store.StatusFailed, nil
}

func printDryRun(jsonOut bool, command []string, env string) error {
	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"command": command,
			"env":     env,
		})
	}
	fmt.Printf("%s %s\n", env, strings.Join(command, " "))
	return nil
}
