// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"
	"testing"

	"github.com/jeranaias/djinn-tui/internal/api"
	"github.com/jeranaias/djinn-tui/internal/config"
)

// =============================================================================
// ARGUMENT PARSING
// =============================================================================

func TestParseCommands(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want Command
	}{
		{"no args is TUI", nil, CmdTUI},
		{"explicit tui", []string{"tui"}, CmdTUI},
		{"chat", []string{"chat"}, CmdChat},
		{"generate", []string{"generate", "hello"}, CmdGenerate},
		{"gen alias", []string{"gen", "hello"}, CmdGenerate},
		{"models", []string{"models"}, CmdModels},
		{"list alias", []string{"list"}, CmdModels},
		{"version", []string{"version"}, CmdVersion},
		{"version flag", []string{"--version"}, CmdVersion},
		{"help", []string{"help"}, CmdHelp},
		{"help flag word", []string{"-h"}, CmdHelp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _ := parse(tt.raw)
			if cmd != tt.want {
				t.Errorf("parse(%v) = %v, want %v", tt.raw, cmd, tt.want)
			}
		})
	}
}

func TestParseBarePromptBecomesGenerate(t *testing.T) {
	cmd, args := parse([]string{"why", "is", "the", "sky", "blue"})
	if cmd != CmdGenerate {
		t.Fatalf("expected CmdGenerate, got %v", cmd)
	}
	got := strings.Join(args.Raw, " ")
	if got != "why is the sky blue" {
		t.Errorf("prompt = %q, want %q", got, "why is the sky blue")
	}
}

func TestParseFlags(t *testing.T) {
	cmd, args := parse([]string{"chat", "-m", "mistral:7b", "--host", "http://10.0.0.2:11434", "-q"})
	if cmd != CmdChat {
		t.Fatalf("expected CmdChat, got %v", cmd)
	}
	if args.Model != "mistral:7b" {
		t.Errorf("Model = %q, want mistral:7b", args.Model)
	}
	if args.Host != "http://10.0.0.2:11434" {
		t.Errorf("Host = %q", args.Host)
	}
	if !args.Quiet {
		t.Error("expected Quiet to be set")
	}
}

func TestParseEqualsFlags(t *testing.T) {
	_, args := parse([]string{"generate", "--model=phi3:mini", "--host=http://x:1", "hi"})
	if args.Model != "phi3:mini" {
		t.Errorf("Model = %q, want phi3:mini", args.Model)
	}
	if args.Host != "http://x:1" {
		t.Errorf("Host = %q, want http://x:1", args.Host)
	}
	if len(args.Raw) != 1 || args.Raw[0] != "hi" {
		t.Errorf("Raw = %v, want [hi]", args.Raw)
	}
}

func TestParseHelpFlagOverridesCommand(t *testing.T) {
	cmd, _ := parse([]string{"chat", "--help"})
	if cmd != CmdHelp {
		t.Errorf("expected CmdHelp, got %v", cmd)
	}
}

// =============================================================================
// MODEL RESOLUTION
// =============================================================================

func TestPickModel(t *testing.T) {
	installed := []api.ModelSummary{{Name: "llama3:8b"}, {Name: "phi3:mini"}}

	cfg := config.Default()
	cfg.Daemon.DefaultModel = "mistral:7b"

	name, err := pickModel(Args{Model: "phi3:mini"}, cfg, installed)
	if err != nil || name != "phi3:mini" {
		t.Errorf("flag should win: got %q, %v", name, err)
	}

	name, err = pickModel(Args{}, cfg, installed)
	if err != nil || name != "mistral:7b" {
		t.Errorf("config should win over installed: got %q, %v", name, err)
	}

	cfg.Daemon.DefaultModel = ""
	name, err = pickModel(Args{}, cfg, installed)
	if err != nil || name != "llama3:8b" {
		t.Errorf("first installed should win: got %q, %v", name, err)
	}

	if _, err = pickModel(Args{}, cfg, nil); err == nil {
		t.Error("expected error when nothing is available")
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

func TestHandleSlashCommand(t *testing.T) {
	var messages []api.Message

	quit, _ := handleSlashCommand("/quit", "m", &messages)
	if !quit {
		t.Error("/quit should exit")
	}
	quit, _ = handleSlashCommand("/exit", "m", &messages)
	if !quit {
		t.Error("/exit should exit")
	}

	_, newModel := handleSlashCommand("/model llama3:8b", "m", &messages)
	if newModel != "llama3:8b" {
		t.Errorf("newModel = %q, want llama3:8b", newModel)
	}
	_, newModel = handleSlashCommand("/model", "m", &messages)
	if newModel != "" {
		t.Errorf("bare /model should not switch, got %q", newModel)
	}

	messages = append(messages, api.Message{Role: "user", Content: "hi"})
	quit, _ = handleSlashCommand("/clear", "m", &messages)
	if quit {
		t.Error("/clear should not exit")
	}
	if len(messages) != 0 {
		t.Errorf("expected cleared history, got %d messages", len(messages))
	}
}
