// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses arguments and implements the plain-terminal command
// handlers.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/jeranaias/djinn-tui/internal/api"
)

// =============================================================================
// ONE-SHOT GENERATE
// =============================================================================

// HandleGenerate runs a single completion and writes it to stdout. The
// prompt comes from the positional arguments, or from stdin when piped.
func HandleGenerate(args Args) error {
	prompt := strings.TrimSpace(strings.Join(args.Raw, " "))
	if prompt == "" {
		// No positional prompt: accept "echo prompt | djinn-tui generate".
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("no prompt given (try: djinn-tui generate \"why is the sky blue\")")
		}
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		prompt = strings.TrimSpace(string(data))
		if prompt == "" {
			return fmt.Errorf("empty prompt on stdin")
		}
	}

	cfg, client, err := loadSetup(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := client.CheckRunning(ctx); err != nil {
		return fmt.Errorf("daemon is not running at %s", cfg.Daemon.Host)
	}

	models, err := client.List(ctx)
	if err != nil {
		return err
	}
	modelName, err := pickModel(args, cfg, models)
	if err != nil {
		return err
	}

	// On a terminal with markdown enabled, buffer the reply and render it
	// once complete. When piped, stream raw tokens so the output stays
	// greppable and arrives as it is produced.
	pretty := cfg.UI.Markdown && term.IsTerminal(int(os.Stdout.Fd()))

	var buf strings.Builder
	var stats *api.CompletionStats

	req := &api.GenerateRequest{Model: modelName, Prompt: prompt}
	err = client.GenerateStream(ctx, req, func(ev api.StreamEvent) {
		switch ev.Kind {
		case api.EventToken:
			if pretty {
				buf.WriteString(ev.Token)
			} else {
				fmt.Print(ev.Token)
			}
		case api.EventDone:
			stats = ev.Stats
		}
	})
	if err != nil {
		return err
	}

	if pretty {
		fmt.Print(renderMarkdownOrRaw(buf.String()))
	}
	fmt.Println()
	if !args.Quiet && stats != nil && stats.TokensPerSecond() > 0 {
		fmt.Fprintf(os.Stderr, "(%d tokens, %.1f tok/s)\n", stats.CompletionTokens, stats.TokensPerSecond())
	}
	return nil
}

// renderMarkdownOrRaw renders text as terminal markdown, falling back to
// the raw text when rendering fails.
func renderMarkdownOrRaw(text string) string {
	width := 100
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && w < width {
		width = w
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}
