// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for djinn-tui.
//
// Configuration is TOML with sensible defaults and environment variable
// overrides. The loaded Config is passed explicitly to the components that
// need it; there is no process-wide config instance.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete djinn-tui configuration.
type Config struct {
	Daemon DaemonConfig `toml:"daemon"`
	UI     UIConfig     `toml:"ui"`
	Log    LogConfig    `toml:"log"`
}

// DaemonConfig contains daemon connection configuration.
type DaemonConfig struct {
	// Host is the daemon API base URL
	Host string `toml:"host"`
	// TimeoutSecs is the timeout for non-streaming requests
	TimeoutSecs int `toml:"timeout_secs"`
	// DefaultModel is used when a request names no model
	DefaultModel string `toml:"default_model"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
	// TickRate is the redraw throttle in ticks per second
	TickRate int `toml:"tick_rate"`
	// LogBufferLines caps the log viewer buffer; oldest lines are evicted
	LogBufferLines int `toml:"log_buffer_lines"`
	// Markdown renders assistant responses through the markdown renderer
	Markdown bool `toml:"markdown"`
	// SyntaxTheme is the highlight theme for code blocks and the editor
	SyntaxTheme string `toml:"syntax_theme"`
}

// LogConfig contains session log configuration.
type LogConfig struct {
	// Level is the minimum level written to the session log:
	// "debug", "info", "warn", "error"
	Level string `toml:"level"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Daemon: DaemonConfig{
			Host:        "http://127.0.0.1:11434",
			TimeoutSecs: 30,
		},
		UI: UIConfig{
			Theme:          "dark",
			TickRate:       30,
			LogBufferLines: 2000,
			Markdown:       true,
			SyntaxTheme:    "monokai",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the config file from the XDG config directory, falling back to
// defaults when the file does not exist. Environment overrides apply last.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path. A missing
// file is not an error; defaults are used.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	if _, err := url.Parse(c.Daemon.Host); err != nil {
		return ValidationError{Field: "daemon.host", Message: fmt.Sprintf("invalid URL: %v", err)}
	}
	if !strings.HasPrefix(c.Daemon.Host, "http://") && !strings.HasPrefix(c.Daemon.Host, "https://") {
		return ValidationError{Field: "daemon.host", Message: "must be an http or https URL"}
	}
	if c.Daemon.TimeoutSecs < 0 {
		return ValidationError{Field: "daemon.timeout_secs", Message: "must be non-negative"}
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		return ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		}
	}
	if c.UI.TickRate < 1 || c.UI.TickRate > 120 {
		return ValidationError{Field: "ui.tick_rate", Message: fmt.Sprintf("must be 1-120, got %d", c.UI.TickRate)}
	}
	if c.UI.LogBufferLines < 100 {
		return ValidationError{Field: "ui.log_buffer_lines", Message: fmt.Sprintf("must be at least 100, got %d", c.UI.LogBufferLines)}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		}
	}

	return nil
}

// SetDefaults fills in defaults for any missing or zero-value fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Daemon.Host == "" {
		c.Daemon.Host = defaults.Daemon.Host
	}
	if c.Daemon.TimeoutSecs == 0 {
		c.Daemon.TimeoutSecs = defaults.Daemon.TimeoutSecs
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.TickRate == 0 {
		c.UI.TickRate = defaults.UI.TickRate
	}
	if c.UI.LogBufferLines == 0 {
		c.UI.LogBufferLines = defaults.UI.LogBufferLines
	}
	if c.UI.SyntaxTheme == "" {
		c.UI.SyntaxTheme = defaults.UI.SyntaxTheme
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - DJINN_HOST: overrides daemon.host
//   - DJINN_MODEL: overrides daemon.default_model
//   - DJINN_TIMEOUT_SECS: overrides daemon.timeout_secs
//   - DJINN_THEME: overrides ui.theme
//   - DJINN_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if host := os.Getenv("DJINN_HOST"); host != "" {
		c.Daemon.Host = host
	}
	if model := os.Getenv("DJINN_MODEL"); model != "" {
		c.Daemon.DefaultModel = model
	}
	if timeout := os.Getenv("DJINN_TIMEOUT_SECS"); timeout != "" {
		if secs, err := strconv.Atoi(timeout); err == nil {
			c.Daemon.TimeoutSecs = secs
		}
	}
	if theme := os.Getenv("DJINN_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if level := os.Getenv("DJINN_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes the configuration to the default config file.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# djinn-tui configuration file")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
