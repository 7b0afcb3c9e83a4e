// Package mcp exposes the launcher's read-only state over the Model Context
// Protocol.
package mcp

// PresetsInput defines the input for the mixlaunch_presets tool.
type PresetsInput struct {
	Name string `json:"name,omitempty" jsonschema:"description=Return only this preset with its full parameters"`
}

// PresetsOutput defines the output for the mixlaunch_presets tool.
type PresetsOutput struct {
	Presets []PresetSummary `json:"presets" jsonschema:"description=Available presets"`
	Count   int             `json:"count" jsonschema:"description=Number of presets"`
}

// PresetSummary is one preset as reported over MCP. Params is populated only
// when a single preset was requested by name.
type PresetSummary struct {
	Name        string         `json:"name"`
	Method      string         `json:"method"`
	Description string         `json:"description,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
}

// RenderInput defines the input for the mixlaunch_render tool.
type RenderInput struct {
	Preset    string         `json:"preset" jsonschema:"description=Preset name to render,required"`
	GPU       *int           `json:"gpu,omitempty" jsonschema:"description=Accelerator index (defaults to the configured default)"`
	Overrides map[string]any `json:"overrides,omitempty" jsonschema:"description=Parameter overrides applied on top of the preset"`
}

// RenderOutput defines the output for the mixlaunch_render tool.
type RenderOutput struct {
	Command []string `json:"command" jsonschema:"description=Full trainer command, interpreter first"`
	Env     string   `json:"env" jsonschema:"description=Device-visibility environment entry"`
}

// RunsInput defines the input for the mixlaunch_runs tool.
type RunsInput struct {
	Status string `json:"status,omitempty" jsonschema:"description=Filter by status: running, finished, failed or killed"`
	Preset string `json:"preset,omitempty" jsonschema:"description=Filter by preset name"`
	Limit  int    `json:"limit,omitempty" jsonschema:"description=Maximum number of runs to return (default 20)"`
}

// RunsOutput defines the output for the mixlaunch_runs tool.
type RunsOutput struct {
	Runs  []RunSummary `json:"runs" jsonschema:"description=Recorded runs, newest first"`
	Count int          `json:"count" jsonschema:"description=Number of runs returned"`
}

// RunSummary is one recorded run as reported over MCP.
type RunSummary struct {
	ID       string `json:"id"`
	Preset   string `json:"preset"`
	Dataset  string `json:"dataset,omitempty"`
	GPU      int    `json:"gpu"`
	Status   string `json:"status"`
	ExitCode *int   `json:"exit_code,omitempty"`
	Started  string `json:"started_at"`
	Tag      string `json:"tag,omitempty"`
}

// DevicesInput defines the input for the mixlaunch_devices tool.
type DevicesInput struct{}

// DevicesOutput defines the output for the mixlaunch_devices tool.
type DevicesOutput struct {
	Devices []DeviceSummary `json:"devices" jsonschema:"description=Detected accelerators"`
	Reason  string          `json:"reason,omitempty" jsonschema:"description=Why the inventory is empty, when it is"`
}

// DeviceSummary is one accelerator as reported over MCP.
type DeviceSummary struct {
	Index             int    `json:"index"`
	Name              string `json:"name"`
	MemoryMB          int    `json:"memory_mb"`
	ComputeCapability string `json:"compute_capability"`
}
