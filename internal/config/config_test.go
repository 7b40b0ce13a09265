// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
)

// =============================================================================
// LOAD TESTS
// =============================================================================

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Daemon.Host != "http://127.0.0.1:11434" {
		t.Errorf("host = %q, want default", cfg.Daemon.Host)
	}
	if cfg.UI.TickRate != 30 {
		t.Errorf("tick_rate = %d, want 30", cfg.UI.TickRate)
	}
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[daemon]
host = "http://10.0.0.5:11434"
default_model = "mistral:7b"

[ui]
theme = "light"
log_buffer_lines = 500
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Daemon.Host != "http://10.0.0.5:11434" {
		t.Errorf("host = %q", cfg.Daemon.Host)
	}
	if cfg.Daemon.DefaultModel != "mistral:7b" {
		t.Errorf("default_model = %q", cfg.Daemon.DefaultModel)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("theme = %q", cfg.UI.Theme)
	}
	if cfg.UI.LogBufferLines != 500 {
		t.Errorf("log_buffer_lines = %d", cfg.UI.LogBufferLines)
	}
	// Unset fields keep their defaults.
	if cfg.Log.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Log.Level)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DJINN_HOST", "http://override:11434")
	t.Setenv("DJINN_MODEL", "llama3:8b")
	t.Setenv("DJINN_LOG_LEVEL", "debug")

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Daemon.Host != "http://override:11434" {
		t.Errorf("host = %q", cfg.Daemon.Host)
	}
	if cfg.Daemon.DefaultModel != "llama3:8b" {
		t.Errorf("default_model = %q", cfg.Daemon.DefaultModel)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"bad host scheme", func(c *Config) { c.Daemon.Host = "ftp://x" }, true},
		{"bad theme", func(c *Config) { c.UI.Theme = "solarized" }, true},
		{"tick rate too high", func(c *Config) { c.UI.TickRate = 500 }, true},
		{"log buffer too small", func(c *Config) { c.UI.LogBufferLines = 10 }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// =============================================================================
// PATH TESTS
// =============================================================================

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg/config")
	t.Setenv("XDG_STATE_HOME", "/tmp/xdg/state")
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg/data")

	path, err := Path()
	if err != nil || path != "/tmp/xdg/config/djinn-tui/config.toml" {
		t.Errorf("Path = %q, %v", path, err)
	}

	logPath, err := SessionLogPath()
	if err != nil || logPath != "/tmp/xdg/state/djinn-tui/tui.log" {
		t.Errorf("SessionLogPath = %q, %v", logPath, err)
	}

	dataDir, err := DataDir()
	if err != nil || dataDir != "/tmp/xdg/data/djinn-tui" {
		t.Errorf("DataDir = %q, %v", dataDir, err)
	}
}
