package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	config := Default()

	if config.Trainer.Python != "python3" {
		t.Errorf("expected Python 'python3', got '%s'", config.Trainer.Python)
	}
	if config.Trainer.Script != "./mix_train.py" {
		t.Errorf("expected Script './mix_train.py', got '%s'", config.Trainer.Script)
	}
	if config.Trainer.SaveRoot != "./models" {
		t.Errorf("expected SaveRoot './models', got '%s'", config.Trainer.SaveRoot)
	}
	if config.Launcher.DefaultGPU != 0 {
		t.Errorf("expected DefaultGPU 0, got %d", config.Launcher.DefaultGPU)
	}
	if config.Launcher.StateDir != "" {
		t.Errorf("expected empty StateDir, got '%s'", config.Launcher.StateDir)
	}
	if config.Logging.Level != "info" {
		t.Errorf("expected Logging.Level 'info', got '%s'", config.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
trainer:
  python: /opt/conda/bin/python
  script: /data/repos/taps/mix_train.py
  save_root: /data/models

launcher:
  default_gpu: 3
  state_dir: /data/mixlaunch

logging:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Trainer.Python != "/opt/conda/bin/python" {
		t.Errorf("expected Python '/opt/conda/bin/python', got '%s'", config.Trainer.Python)
	}
	if config.Trainer.Script != "/data/repos/taps/mix_train.py" {
		t.Errorf("expected Script '/data/repos/taps/mix_train.py', got '%s'", config.Trainer.Script)
	}
	if config.Launcher.DefaultGPU != 3 {
		t.Errorf("expected DefaultGPU 3, got %d", config.Launcher.DefaultGPU)
	}
	if config.Launcher.StateDir != "/data/mixlaunch" {
		t.Errorf("expected StateDir '/data/mixlaunch', got '%s'", config.Launcher.StateDir)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("expected Level 'debug', got '%s'", config.Logging.Level)
	}
}

func TestLoadFromFilePartialKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
launcher:
  default_gpu: 1
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Launcher.DefaultGPU != 1 {
		t.Errorf("expected DefaultGPU 1, got %d", config.Launcher.DefaultGPU)
	}
	if config.Trainer.Python != "python3" {
		t.Errorf("expected default Python to survive partial config, got '%s'", config.Trainer.Python)
	}
}

func TestLoadFromFile_EnvExpansion(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
trainer:
  script: ${TEST_TRAINER_ROOT}/mix_train.py
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	os.Setenv("TEST_TRAINER_ROOT", "/srv/taps")
	defer os.Unsetenv("TEST_TRAINER_ROOT")

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Trainer.Script != "/srv/taps/mix_train.py" {
		t.Errorf("expected expanded script path, got '%s'", config.Trainer.Script)
	}
}

func TestLoadFromAppliesEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
launcher:
  default_gpu: 3
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	os.Setenv("MIXLAUNCH_GPU", "7")
	defer os.Unsetenv("MIXLAUNCH_GPU")

	config, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if config.Launcher.DefaultGPU != 7 {
		t.Errorf("expected env override over explicit config file, got %d", config.Launcher.DefaultGPU)
	}
}

func TestEnvOverrides(t *testing.T) {
	vars := map[string]string{
		"MIXLAUNCH_PYTHON":    "python3.11",
		"MIXLAUNCH_SCRIPT":    "/x/mix_train.py",
		"MIXLAUNCH_SAVE_ROOT": "/x/models",
		"MIXLAUNCH_GPU":       "7",
		"MIXLAUNCH_STATE_DIR": "/x/state",
		"MIXLAUNCH_LOG_LEVEL": "trace",
	}
	for k, v := range vars {
		os.Setenv(k, v)
	}
	defer func() {
		for k := range vars {
			os.Unsetenv(k)
		}
	}()

	config := Default()
	applyEnvOverrides(config)

	if config.Trainer.Python != "python3.11" {
		t.Errorf("Python = '%s'", config.Trainer.Python)
	}
	if config.Trainer.Script != "/x/mix_train.py" {
		t.Errorf("Script = '%s'", config.Trainer.Script)
	}
	if config.Trainer.SaveRoot != "/x/models" {
		t.Errorf("SaveRoot = '%s'", config.Trainer.SaveRoot)
	}
	if config.Launcher.DefaultGPU != 7 {
		t.Errorf("DefaultGPU = %d", config.Launcher.DefaultGPU)
	}
	if config.Launcher.StateDir != "/x/state" {
		t.Errorf("StateDir = '%s'", config.Launcher.StateDir)
	}
	if config.Logging.Level != "trace" {
		t.Errorf("Level = '%s'", config.Logging.Level)
	}
}

func TestEnvOverrideBadGPUIgnored(t *testing.T) {
	os.Setenv("MIXLAUNCH_GPU", "not-a-number")
	defer os.Unsetenv("MIXLAUNCH_GPU")

	config := Default()
	applyEnvOverrides(config)

	if config.Launcher.DefaultGPU != 0 {
		t.Errorf("expected non-numeric MIXLAUNCH_GPU to be ignored, got %d", config.Launcher.DefaultGPU)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults valid", mutate: func(c *Config) {}},
		{name: "empty python", mutate: func(c *Config) { c.Trainer.Python = "" }, wantErr: true},
		{name: "empty script", mutate: func(c *Config) { c.Trainer.Script = "" }, wantErr: true},
		{name: "negative gpu", mutate: func(c *Config) { c.Launcher.DefaultGPU = -1 }, wantErr: true},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "verbose" }, wantErr: true},
		{name: "empty level ok", mutate: func(c *Config) { c.Logging.Level = "" }},
		{name: "trace level ok", mutate: func(c *Config) { c.Logging.Level = "trace" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestStateDirExplicit(t *testing.T) {
	config := Default()
	config.Launcher.StateDir = "/custom/state"

	dir, err := config.StateDir()
	if err != nil {
		t.Fatalf("StateDir: %v", err)
	}
	if dir != "/custom/state" {
		t.Errorf("StateDir = '%s', want '/custom/state'", dir)
	}

	presetDir, err := config.PresetDir()
	if err != nil {
		t.Fatalf("PresetDir: %v", err)
	}
	if presetDir != filepath.Join("/custom/state", "presets") {
		t.Errorf("PresetDir = '%s'", presetDir)
	}
}
