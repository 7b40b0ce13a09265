// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui is the view controller for djinn-tui.
package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/djinn-tui/internal/api"
	"github.com/jeranaias/djinn-tui/internal/bus"
	"github.com/jeranaias/djinn-tui/internal/storage"
)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// waitForEvent blocks on the bus and forwards one event into the Bubble
// Tea queue. The handler re-arms it, so the two queues interleave one
// event per wake-up.
func waitForEvent(b *bus.Bus) tea.Cmd {
	return func() tea.Msg {
		m, err := b.Next(context.Background())
		if err != nil {
			// Bus closed; the program is shutting down.
			return nil
		}
		return busEventMsg{msg: m}
	}
}

// checkDaemonCmd verifies the daemon is reachable and fetches its version.
func checkDaemonCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := client.CheckRunning(ctx); err != nil {
			return daemonStatusMsg{running: false, err: err}
		}
		version, err := client.Version(ctx)
		if err != nil {
			// Reachable but no version endpoint; still usable.
			return daemonStatusMsg{running: true}
		}
		return daemonStatusMsg{running: true, version: version}
	}
}

// listModelsCmd fetches the installed model list.
func listModelsCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		models, err := client.List(ctx)
		return modelsLoadedMsg{models: models, err: err}
	}
}

// showModelCmd fetches a model's Modelfile for editing and refreshes the
// local cache. When the daemon is unreachable the cached copy serves
// instead, so editing keeps working offline.
func showModelCmd(client *api.Client, store *storage.Store, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		resp, err := client.Show(ctx, name)
		if err != nil {
			if cached, cacheErr := store.LoadModelfile(name); cacheErr == nil {
				return modelShownMsg{name: name, modelfile: cached, fromCache: true}
			}
			return modelShownMsg{name: name, err: err}
		}

		// Cache refresh is best-effort; a full disk must not block editing.
		_ = store.SaveModelfile(name, resp.Modelfile)
		_ = store.SaveModelInfo(name, resp)

		return modelShownMsg{name: name, modelfile: resp.Modelfile}
	}
}

// deleteModelCmd removes a model from the daemon.
func deleteModelCmd(client *api.Client, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return modelDeletedMsg{name: name, err: client.Delete(ctx, name)}
	}
}

// saveModelfileCmd writes a rendered Modelfile to the data dir.
func saveModelfileCmd(store *storage.Store, name, text string) tea.Cmd {
	return func() tea.Msg {
		return modelfileSavedMsg{name: name, err: store.SaveModelfile(name, text)}
	}
}

// statusCmd sets the status bar message.
func statusCmd(text string, isError bool) tea.Cmd {
	return func() tea.Msg {
		return statusNoteMsg{text: text, isError: isError}
	}
}
