package mcp

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/certlab/mixlaunch/internal/config"
	"github.com/certlab/mixlaunch/internal/presets"
	"github.com/certlab/mixlaunch/internal/store"
)

// Server wraps the MCP SDK server. All exposed tools are read-only; launching
// a run stays with the CLI, where the operator can watch the trainer.
type Server struct {
	server   *sdk.Server
	cfg      *config.Config
	registry *presets.Registry
	runs     *store.RunStore
}

// ServerInfo holds the server identity advertised to clients.
type ServerInfo struct {
	Name    string
	Version string
}

// NewServer creates an MCP server over the given configuration. The run
// store is opened from the configured state directory.
func NewServer(info ServerInfo, cfg *config.Config) (*Server, error) {
	registry := presets.NewRegistry()
	presetDir, err := cfg.PresetDir()
	if err != nil {
		return nil, err
	}
	if err := registry.LoadDir(presetDir); err != nil {
		return nil, fmt.Errorf("loading user presets: %w", err)
	}

	stateDir, err := cfg.StateDir()
	if err != nil {
		return nil, err
	}
	runs, err := store.Open(stateDir)
	if err != nil {
		return nil, fmt.Errorf("opening run store: %w", err)
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    info.Name,
		Version: info.Version,
	}, nil)

	s := &Server{
		server:   mcpServer,
		cfg:      cfg,
		registry: registry,
		runs:     runs,
	}
	s.registerTools()
	return s, nil
}

// Run serves MCP over stdio until the client disconnects, the context is
// cancelled, or an interrupt arrives.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		cancel()
	}()

	err := s.server.Run(ctx, &sdk.StdioTransport{})
	s.runs.Close()
	return err
}

// Close releases the run store.
func (s *Server) Close() error {
	return s.runs.Close()
}
