package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestRun_InvalidConfig verifies run fails with an invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("RHASSPY_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_BrokenRuleFile verifies a rejected rule file fails startup before
// any network connection is attempted.
func TestRun_BrokenRuleFile(t *testing.T) {
	tmpDir := t.TempDir()

	rulesPath := filepath.Join(tmpDir, "automations.yaml")
	broken := `
- alias: Broken
  trigger:
    event_type: rhasspy_GetTime
  action:
    service_template: "{{ nope"
`
	if err := os.WriteFile(rulesPath, []byte(broken), 0o600); err != nil {
		t.Fatalf("writing rule file: %v", err)
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := `
rules:
  path: "` + rulesPath + `"

database:
  path: "` + filepath.Join(tmpDir, "test.db") + `"
  wal_mode: true
  busy_timeout: 5

influxdb:
  enabled: false

logging:
  level: error
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("RHASSPY_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail when the rule file is rejected")
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("RHASSPY_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("RHASSPY_CONFIG", "/etc/rhasspy/config.yaml")
	if got := getConfigPath(); got != "/etc/rhasspy/config.yaml" {
		t.Errorf("getConfigPath() = %q", got)
	}
}
