// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses arguments and implements the plain-terminal command
// handlers: the chat REPL, one-shot generate, and the model table.
package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jeranaias/djinn-tui/internal/api"
	"github.com/jeranaias/djinn-tui/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdGenerate
	CmdModels
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Model string // --model/-m overrides the configured default
	Host  string // --host overrides the configured daemon URL
	Quiet bool   // --quiet/-q suppresses banners and statistics

	// Raw positional arguments after the command name.
	Raw []string
}

const usageText = `djinn-tui - terminal client for the djinn daemon

Usage:
  djinn-tui                    Start the TUI (default)
  djinn-tui chat               Interactive chat in the plain terminal
  djinn-tui generate "prompt"  One-shot completion to stdout
  djinn-tui models             List installed models
  djinn-tui version            Show version
  djinn-tui help               Show this help

Flags:
  -m, --model NAME   Use a specific model (overrides config)
      --host URL     Daemon base URL (overrides config)
  -q, --quiet        Minimal output

The TUI reads its configuration from $XDG_CONFIG_HOME/djinn-tui/config.toml
and key bindings from keymap.toml next to it.
`

// Parse reads os.Args and returns the command plus its arguments.
func Parse() (Command, Args) {
	return parse(os.Args[1:])
}

func parse(raw []string) (Command, Args) {
	cmd := CmdTUI
	args := Args{}

	rest := raw
	if len(rest) > 0 && !strings.HasPrefix(rest[0], "-") {
		switch rest[0] {
		case "tui":
			cmd = CmdTUI
		case "chat":
			cmd = CmdChat
		case "generate", "gen":
			cmd = CmdGenerate
		case "models", "list":
			cmd = CmdModels
		case "version", "-v", "--version":
			cmd = CmdVersion
		case "help", "-h", "--help":
			cmd = CmdHelp
		default:
			// Unknown word: treat it as a generate prompt, the common
			// "djinn-tui why is the sky blue" case reads naturally.
			cmd = CmdGenerate
			rest = append([]string{""}, rest...)
		}
		rest = rest[1:]
	}

	for i := 0; i < len(rest); i++ {
		arg := rest[i]
		switch {
		case arg == "-m" || arg == "--model":
			if i+1 < len(rest) {
				i++
				args.Model = rest[i]
			}
		case strings.HasPrefix(arg, "--model="):
			args.Model = strings.TrimPrefix(arg, "--model=")
		case arg == "--host":
			if i+1 < len(rest) {
				i++
				args.Host = rest[i]
			}
		case strings.HasPrefix(arg, "--host="):
			args.Host = strings.TrimPrefix(arg, "--host=")
		case arg == "-q" || arg == "--quiet":
			args.Quiet = true
		case arg == "-h" || arg == "--help":
			cmd = CmdHelp
		default:
			args.Raw = append(args.Raw, arg)
		}
	}

	return cmd, args
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// loadSetup loads the config and builds a client, applying flag overrides.
func loadSetup(args Args) (*config.Config, *api.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if args.Host != "" {
		cfg.Daemon.Host = args.Host
	}

	client := api.NewClient(&api.ClientConfig{
		BaseURL: cfg.Daemon.Host,
		Timeout: time.Duration(cfg.Daemon.TimeoutSecs) * time.Second,
	})
	return cfg, client, nil
}

// pickModel resolves the model to use: flag, then config, then the first
// installed model.
func pickModel(args Args, cfg *config.Config, models []api.ModelSummary) (string, error) {
	if args.Model != "" {
		return args.Model, nil
	}
	if cfg.Daemon.DefaultModel != "" {
		return cfg.Daemon.DefaultModel, nil
	}
	if len(models) > 0 {
		return models[0].Name, nil
	}
	return "", fmt.Errorf("no model available: pull one or set daemon.default_model")
}

// =============================================================================
// SIMPLE HANDLERS
// =============================================================================

// HandleVersion prints the version line.
func HandleVersion() {
	fmt.Printf("djinn-tui %s (%s, built %s)\n", Version, GitCommit, BuildDate)
}

// HandleHelp prints usage.
func HandleHelp() {
	fmt.Print(usageText)
}
