// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses arguments and implements the plain-terminal command
// handlers.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/djinn-tui/internal/api"
	"github.com/jeranaias/djinn-tui/internal/config"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// inputLiner wraps liner with persistent history in the config dir.
type inputLiner struct {
	line        *liner.State
	historyFile string
}

func newInputLiner(configPath string) *inputLiner {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	in := &inputLiner{
		line:        line,
		historyFile: filepath.Join(filepath.Dir(configPath), "chat_history"),
	}
	if f, err := os.Open(in.historyFile); err == nil {
		in.line.ReadHistory(f)
		f.Close()
	}
	return in
}

func (in *inputLiner) read(prompt string) (string, error) {
	text, err := in.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) != "" {
		in.line.AppendHistory(text)
	}
	return text, nil
}

func (in *inputLiner) close() {
	if f, err := os.OpenFile(in.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
		in.line.WriteHistory(f)
		f.Close()
	}
	in.line.Close()
}

// =============================================================================
// CHAT REPL
// =============================================================================

// HandleChat runs the interactive plain-terminal chat loop. Ctrl+C cancels
// the in-flight reply; Ctrl+D or /quit exits.
func HandleChat(args Args) error {
	cfg, client, err := loadSetup(args)
	if err != nil {
		return err
	}

	ctx := context.Background()
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

	configPath, err := config.Path()
	if err != nil {
		return err
	}
	input := newInputLiner(configPath)
	defer input.close()

	if !args.Quiet {
		fmt.Printf("djinn chat: %s on %s\n", modelName, cfg.Daemon.Host)
		fmt.Println("/model [name] to switch, /clear to reset, /quit to exit")
	}

	var messages []api.Message
	for {
		text, err := input.read("> ")
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return nil
		}
		if err != nil {
			return err
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if strings.HasPrefix(text, "/") {
			done, newModel := handleSlashCommand(text, modelName, &messages)
			if done {
				return nil
			}
			if newModel != "" {
				modelName = newModel
			}
			continue
		}

		messages = append(messages, api.Message{Role: "user", Content: text})

		reply, err := streamReply(client, modelName, messages, args.Quiet)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Println("\n[cancelled]")
			} else {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
			// The failed turn stays out of the history so a retry is clean.
			messages = messages[:len(messages)-1]
			continue
		}
		messages = append(messages, api.Message{Role: "assistant", Content: reply})
	}
}

// streamReply streams one assistant reply to stdout, cancellable with
// Ctrl+C, and returns the full text.
func streamReply(client *api.Client, modelName string, messages []api.Message, quiet bool) (string, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var reply strings.Builder
	var stats *api.CompletionStats

	err := client.ChatStream(ctx, &api.ChatRequest{Model: modelName, Messages: messages}, func(ev api.StreamEvent) {
		switch ev.Kind {
		case api.EventToken:
			fmt.Print(ev.Token)
			reply.WriteString(ev.Token)
		case api.EventDone:
			stats = ev.Stats
		}
	})
	if err != nil {
		return "", err
	}

	fmt.Println()
	if !quiet && stats != nil && stats.TokensPerSecond() > 0 {
		fmt.Printf("(%d tokens, %.1f tok/s)\n", stats.CompletionTokens, stats.TokensPerSecond())
	}
	return reply.String(), nil
}

// handleSlashCommand executes a REPL command. It reports whether the loop
// should exit, and a non-empty model name when the user switched.
func handleSlashCommand(text, current string, messages *[]api.Message) (quit bool, newModel string) {
	fields := strings.Fields(text)
	switch fields[0] {
	case "/quit", "/q", "/exit":
		return true, ""
	case "/clear", "/c":
		*messages = (*messages)[:0]
		fmt.Println("conversation cleared")
	case "/model":
		if len(fields) > 1 {
			fmt.Printf("switched to %s\n", fields[1])
			return false, fields[1]
		}
		fmt.Printf("current model: %s\n", current)
	case "/history":
		for _, m := range *messages {
			fmt.Printf("[%s] %s\n", m.Role, m.Content)
		}
	case "/help", "/h":
		fmt.Println("/model [name]  show or switch model")
		fmt.Println("/clear         reset the conversation")
		fmt.Println("/history       show the conversation so far")
		fmt.Println("/quit          exit")
	default:
		fmt.Printf("unknown command %s (try /help)\n", fields[0])
	}
	return false, ""
}
