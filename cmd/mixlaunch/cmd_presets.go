package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newPresetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List available training presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")

			registry, err := buildRegistry(cfg)
			if err != nil {
				return err
			}
			list := registry.List()

			if jsonOut {
				type presetJSON struct {
					Name        string `json:"name"`
					Method      string `json:"method"`
					Description string `json:"description,omitempty"`
				}
				out := make([]presetJSON, 0, len(list))
				for _, p := range list {
					out = append(out, presetJSON{p.Name, p.Method, p.Description})
				}
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"presets": out,
					"count":   len(out),
				})
			}

			fmt.Printf("Available presets (%d):\n\n", len(list))
			for _, p := range list {
				fmt.Printf("  %-18s [%s]  %s\n", p.Name, p.Method, p.Description)
			}
			fmt.Println("\nRun 'mixlaunch presets show <name>' for the full parameter set.")
			return nil
		},
	}

	cmd.AddCommand(newPresetsShowCmd())
	return cmd
}

func newPresetsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show one preset with its full parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")

			registry, err := buildRegistry(cfg)
			if err != nil {
				return err
			}
			p, err := registry.Get(args[0])
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"name":        p.Name,
					"method":      p.Method,
					"description": p.Description,
					"params":      p.Config.Params(),
					"args":        p.Config.Args(),
				})
			}

			fmt.Printf("Preset: %s\n", p.Name)
			fmt.Printf("Method: %s\n", p.Method)
			if p.Description != "" {
				fmt.Printf("Description: %s\n", p.Description)
			}
			fmt.Println("\nParameters:")
			params := p.Config.Params()
			for _, name := range p.Config.Names() {
				fmt.Printf("  %-28s %v\n", name, params[name])
			}
			fmt.Printf("\nRendered: %s\n", strings.Join(p.Config.Args(), " "))
			return nil
		},
	}
}
