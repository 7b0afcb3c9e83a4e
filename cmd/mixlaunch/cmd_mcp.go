package main

import (
	"github.com/spf13/cobra"

	"github.com/certlab/mixlaunch/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server over stdio",
		Long: `Serve read-only launcher state (presets, runs, devices, rendered
commands) over the Model Context Protocol. The server speaks stdio and is
meant to be spawned by an MCP client.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			server, err := mcp.NewServer(mcp.ServerInfo{
				Name:    "mixlaunch",
				Version: version,
			}, cfg)
			if err != nil {
				return err
			}

			return server.Run(cmd.Context())
		},
	}
}
