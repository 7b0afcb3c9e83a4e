package mcp

import (
	"context"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/certlab/mixlaunch/internal/devices"
	"github.com/certlab/mixlaunch/internal/launch"
	"github.com/certlab/mixlaunch/internal/store"
)

const defaultRunsLimit = 20

// registerTools registers the launcher's MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "mixlaunch_presets",
		Description: "List available training presets, or show one preset with its full parameters",
	}, s.handlePresets)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "mixlaunch_render",
		Description: "Render the exact trainer command and device environment for a preset without launching it",
	}, s.handleRender)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "mixlaunch_runs",
		Description: "List recorded training runs, newest first, optionally filtered by status or preset",
	}, s.handleRuns)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "mixlaunch_devices",
		Description: "Enumerate the accelerators available for pinning runs to",
	}, s.handleDevices)
}

// handlePresets implements the mixlaunch_presets tool.
func (s *Server) handlePresets(ctx context.Context, req *sdk.CallToolRequest, args PresetsInput) (*sdk.CallToolResult, PresetsOutput, error) {
	if args.Name != "" {
		p, err := s.registry.Get(args.Name)
		if err != nil {
			return nil, PresetsOutput{}, err
		}
		return nil, PresetsOutput{
			Presets: []PresetSummary{{
				Name:        p.Name,
				Method:      p.Method,
				Description: p.Description,
				Params:      p.Config.Params(),
			}},
			Count: 1,
		}, nil
	}

	list := s.registry.List()
	out := PresetsOutput{Presets: make([]PresetSummary, 0, len(list)), Count: len(list)}
	for _, p := range list {
		out.Presets = append(out.Presets, PresetSummary{
			Name:        p.Name,
			Method:      p.Method,
			Description: p.Description,
		})
	}
	return nil, out, nil
}

// handleRender implements the mixlaunch_render tool. It renders exactly what
// 'mixlaunch launch --dry-run' would print but never spawns anything.
func (s *Server) handleRender(ctx context.Context, req *sdk.CallToolRequest, args RenderInput) (*sdk.CallToolResult, RenderOutput, error) {
	p, err := s.registry.Get(args.Preset)
	if err != nil {
		return nil, RenderOutput{}, err
	}
	if err := p.Config.SetAll(args.Overrides); err != nil {
		return nil, RenderOutput{}, err
	}

	gpu := s.cfg.Launcher.DefaultGPU
	if args.GPU != nil {
		gpu = *args.GPU
	}

	launcher := launch.New(s.cfg.Trainer.Python, s.cfg.Trainer.Script, nil)
	spec := launch.Spec{Args: p.Config.Args(), GPU: gpu}
	return nil, RenderOutput{
		Command: launcher.Command(spec),
		Env:     launch.Env(spec),
	}, nil
}

// handleRuns implements the mixlaunch_runs tool.
func (s *Server) handleRuns(ctx context.Context, req *sdk.CallToolRequest, args RunsInput) (*sdk.CallToolResult, RunsOutput, error) {
	limit := args.Limit
	if limit <= 0 {
		limit = defaultRunsLimit
	}

	runs, err := s.runs.List(ctx, store.Filter{
		Status: args.Status,
		Preset: args.Preset,
		Limit:  limit,
	})
	if err != nil {
		return nil, RunsOutput{}, err
	}

	out := RunsOutput{Runs: make([]RunSummary, 0, len(runs)), Count: len(runs)}
	for _, r := range runs {
		out.Runs = append(out.Runs, RunSummary{
			ID:       r.ID,
			Preset:   r.Preset,
			Dataset:  r.Dataset,
			GPU:      r.GPU,
			Status:   r.Status,
			ExitCode: r.ExitCode,
			Started:  r.StartedAt.Format(time.RFC3339),
			Tag:      r.Tag,
		})
	}
	return nil, out, nil
}

// handleDevices implements the mixlaunch_devices tool.
func (s *Server) handleDevices(ctx context.Context, req *sdk.CallToolRequest, args DevicesInput) (*sdk.CallToolResult, DevicesOutput, error) {
	inv := devices.Detect(ctx)

	out := DevicesOutput{Reason: inv.Reason}
	for _, d := range inv.Devices {
		out.Devices = append(out.Devices, DeviceSummary{
			Index:             d.Index,
			Name:              d.Name,
			MemoryMB:          d.MemoryMB,
			ComputeCapability: d.ComputeCapability,
		})
	}
	return nil, out, nil
}
