// Package store provides the persistent run registry.
package store

import (
	"time"
)

// Run statuses. A run is recorded as StatusRunning before the trainer is
// spawned and finalized exactly once afterwards.
const (
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusFailed   = "failed"
	StatusKilled   = "killed"
)

// Run is one recorded trainer launch.
type Run struct {
	// ID uniquely identifies the run, e.g. "r-1724500000000000000".
	ID string `json:"id"`

	// Preset is the preset name the run was launched from.
	Preset string `json:"preset"`

	// Dataset and Net are denormalized from the parameters for filtering.
	Dataset string `json:"dataset,omitempty"`
	Net     string `json:"net,omitempty"`

	// GPU is the accelerator index the run was pinned to.
	GPU int `json:"gpu"`

	// Command is the full rendered argv, interpreter first.
	Command []string `json:"command"`

	// Params is the flag-name -> value map the argv was rendered from.
	Params map[string]any `json:"params"`

	// SaveDir is the trainer's save directory, if one was configured.
	SaveDir string `json:"save_dir,omitempty"`

	// Tag is an optional free-form label.
	Tag string `json:"tag,omitempty"`

	Status     string     `json:"status"`
	ExitCode   *int       `json:"exit_code,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Status string
	Preset string
	Limit  int
}
