package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/certlab/mixlaunch/internal/store"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded training runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			status, _ := cmd.Flags().GetString("status")
			preset, _ := cmd.Flags().GetString("preset")
			limit, _ := cmd.Flags().GetInt("limit")

			stateDir, err := cfg.StateDir()
			if err != nil {
				return err
			}
			runs, err := store.Open(stateDir)
			if err != nil {
				return err
			}
			defer runs.Close()

			list, err := runs.List(cmd.Context(), store.Filter{
				Status: status,
				Preset: preset,
				Limit:  limit,
			})
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"runs":  list,
					"count": len(list),
				})
			}

			if len(list) == 0 {
				fmt.Println("No runs recorded yet.")
				return nil
			}

			fmt.Printf("Recorded runs (%d):\n\n", len(list))
			for _, r := range list {
				exit := "-"
				if r.ExitCode != nil {
					exit = fmt.Sprintf("%d", *r.ExitCode)
				}
				fmt.Printf("  %-24s %-18s gpu=%d  %-8s  exit=%-3s  %s\n",
					r.ID, r.Preset, r.GPU, r.Status, exit,
					r.StartedAt.Local().Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().String("status", "", "Filter by status: running, finished, failed, killed")
	cmd.Flags().String("preset", "", "Filter by preset name")
	cmd.Flags().Int("limit", 20, "Maximum number of runs to show (0 = all)")

	cmd.AddCommand(newRunsShowCmd())
	return cmd
}

func newRunsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")

			stateDir, err := cfg.StateDir()
			if err != nil {
				return err
			}
			runs, err := store.Open(stateDir)
			if err != nil {
				return err
			}
			defer runs.Close()

			run, err := runs.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("run not found: %s", args[0])
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(run)
			}

			fmt.Printf("Run: %s\n", run.ID)
			fmt.Printf("Preset: %s\n", run.Preset)
			if run.Dataset != "" {
				fmt.Printf("Dataset: %s\n", run.Dataset)
			}
			if run.Net != "" {
				fmt.Printf("Net: %s\n", run.Net)
			}
			fmt.Printf("GPU: %d\n", run.GPU)
			fmt.Printf("Status: %s\n", run.Status)
			if run.ExitCode != nil {
				fmt.Printf("Exit code: %d\n", *run.ExitCode)
			}
			if run.Tag != "" {
				fmt.Printf("Tag: %s\n", run.Tag)
			}
			if run.SaveDir != "" {
				fmt.Printf("Save dir: %s\n", run.SaveDir)
			}
			fmt.Printf("Started: %s\n", run.StartedAt.Local().Format(time.RFC3339))
			if run.FinishedAt != nil {
				fmt.Printf("Finished: %s (took %s)\n",
					run.FinishedAt.Local().Format(time.RFC3339),
					run.FinishedAt.Sub(run.StartedAt).Round(time.Second))
			}
			fmt.Printf("\nCommand:\n  %s\n", strings.Join(run.Command, " "))
			return nil
		},
	}
}
