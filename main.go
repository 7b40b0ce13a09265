// djinn-tui - A terminal interface for the djinn model daemon.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/djinn-tui/internal/api"
	"github.com/jeranaias/djinn-tui/internal/bus"
	"github.com/jeranaias/djinn-tui/internal/cli"
	"github.com/jeranaias/djinn-tui/internal/config"
	"github.com/jeranaias/djinn-tui/internal/keymap"
	"github.com/jeranaias/djinn-tui/internal/logtail"
	"github.com/jeranaias/djinn-tui/internal/storage"
	"github.com/jeranaias/djinn-tui/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		if err := runTUI(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case cli.CmdChat:
		if err := cli.HandleChat(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case cli.CmdGenerate:
		if err := cli.HandleGenerate(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case cli.CmdModels:
		if err := cli.HandleModels(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case cli.CmdVersion:
		cli.HandleVersion()
	case cli.CmdHelp:
		cli.HandleHelp()
	}
}

// =============================================================================
// TUI STARTUP
// =============================================================================

func runTUI(args cli.Args) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if args.Host != "" {
		cfg.Daemon.Host = args.Host
	}
	if args.Model != "" {
		cfg.Daemon.DefaultModel = args.Model
	}

	logPath, err := config.SessionLogPath()
	if err != nil {
		return err
	}
	logger, logCloser, err := storage.OpenSessionLog(logPath, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	dataDir, err := config.DataDir()
	if err != nil {
		return err
	}
	store := storage.NewStore(dataDir)

	client := api.NewClient(&api.ClientConfig{
		BaseURL: cfg.Daemon.Host,
		Timeout: time.Duration(cfg.Daemon.TimeoutSecs) * time.Second,
	})

	configPath, err := config.Path()
	if err != nil {
		return err
	}
	km, err := keymap.Load(filepath.Join(filepath.Dir(configPath), "keymap.toml"))
	if err != nil {
		return fmt.Errorf("loading keymap: %w", err)
	}

	b := bus.NewWithTickRate(float64(cfg.UI.TickRate))

	// The log viewer follows the session log through the bus, so log lines
	// queue alongside stream events instead of racing the renderer.
	tailer := logtail.NewTailer(logPath, func(line string) {
		b.Publish(bus.LogLineMsg{Line: line})
	})
	if err := tailer.Start(); err != nil {
		logger.Warn("log tail unavailable", "error", err)
	}
	defer tailer.Close()

	logger.Info("starting", "version", Version, "host", cfg.Daemon.Host)

	app := ui.NewApp(cfg, km, client, store, b, logger)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}
