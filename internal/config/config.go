// Package config provides unified configuration loading for mixlaunch.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config contains all mixlaunch configuration settings.
type Config struct {
	// Trainer describes the external training program the launcher spawns.
	Trainer TrainerConfig `json:"trainer" yaml:"trainer"`

	// Launcher contains settings owned by the launcher itself.
	Launcher LauncherConfig `json:"launcher" yaml:"launcher"`

	// Logging contains settings for operational and event logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// TrainerConfig identifies the external trainer invocation.
type TrainerConfig struct {
	// Python is the interpreter used to run the trainer script.
	Python string `json:"python" yaml:"python"`

	// Script is the path to the trainer entry point. Supports ${VAR} syntax
	// for env vars.
	Script string `json:"script" yaml:"script"`

	// SaveRoot is the directory under which per-run save directories are
	// created. Empty disables automatic save-dir injection.
	SaveRoot string `json:"save_root,omitempty" yaml:"save_root,omitempty"`
}

// LauncherConfig configures launcher behavior.
type LauncherConfig struct {
	// DefaultGPU is the accelerator index used when launch is not given an
	// explicit --gpu.
	DefaultGPU int `json:"default_gpu" yaml:"default_gpu"`

	// StateDir holds the run registry, event log, and user presets.
	// Empty means ~/.mixlaunch.
	StateDir string `json:"state_dir,omitempty" yaml:"state_dir,omitempty"`
}

// LoggingConfig configures mixlaunch's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables launch event logging to <state dir>/events.jsonl.
	Level string `json:"level" yaml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Trainer: TrainerConfig{
			Python:   "python3",
			Script:   "./mix_train.py",
			SaveRoot: "./models",
		},
		Launcher: LauncherConfig{
			DefaultGPU: 0,
			StateDir:   "",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the default locations and environment
// variables. Order: defaults -> ~/.mixlaunch/config.yaml -> environment.
func Load() (*Config, error) {
	config := Default()

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".mixlaunch", "config.yaml")
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFrom loads configuration from an explicit file path, then applies the
// same MIXLAUNCH_* environment overrides as Load, so a --config flag does
// not silence the environment.
func LoadFrom(path string) (*Config, error) {
	config, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(config)
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Expand environment variables in paths
	config.Trainer.Script = expandEnvVars(config.Trainer.Script)
	config.Trainer.SaveRoot = expandEnvVars(config.Trainer.SaveRoot)
	config.Launcher.StateDir = expandEnvVars(config.Launcher.StateDir)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Trainer.Python == "" {
		return fmt.Errorf("trainer.python must not be empty")
	}
	if c.Trainer.Script == "" {
		return fmt.Errorf("trainer.script must not be empty")
	}
	if c.Launcher.DefaultGPU < 0 {
		return fmt.Errorf("default_gpu must be non-negative, got %d", c.Launcher.DefaultGPU)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// StateDir resolves the launcher state directory, defaulting to ~/.mixlaunch.
func (c *Config) StateDir() (string, error) {
	if c.Launcher.StateDir != "" {
		return c.Launcher.StateDir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(homeDir, ".mixlaunch"), nil
}

// PresetDir returns the user preset directory under the state dir.
func (c *Config) PresetDir() (string, error) {
	stateDir, err := c.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(stateDir, "presets"), nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("MIXLAUNCH_PYTHON"); v != "" {
		config.Trainer.Python = v
	}

	if v := os.Getenv("MIXLAUNCH_SCRIPT"); v != "" {
		config.Trainer.Script = v
	}

	if v := os.Getenv("MIXLAUNCH_SAVE_ROOT"); v != "" {
		config.Trainer.SaveRoot = v
	}

	if v := os.Getenv("MIXLAUNCH_GPU"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Launcher.DefaultGPU = n
		}
	}

	if v := os.Getenv("MIXLAUNCH_STATE_DIR"); v != "" {
		config.Launcher.StateDir = v
	}

	if v := os.Getenv("MIXLAUNCH_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
