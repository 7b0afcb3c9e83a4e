package main

import "testing"

func TestRootCmdSubcommands(t *testing.T) {
	rootCmd := newRootCmd()

	want := []string{"version", "launch", "presets", "runs", "devices", "config", "mcp"}
	for _, name := range want {
		found := false
		for _, sub := range rootCmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}

	if rootCmd.PersistentFlags().Lookup("json") == nil {
		t.Error("missing global --json flag")
	}
	if rootCmd.PersistentFlags().Lookup("config") == nil {
		t.Error("missing global --config flag")
	}
}

func TestLoadConfigFromFlag(t *testing.T) {
	rootCmd := newRootCmd()

	// No --config flag falls through to defaults plus env
	cmd, _, err := rootCmd.Find([]string{"presets"})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Trainer.Python == "" {
		t.Error("loaded config has empty interpreter")
	}
}
