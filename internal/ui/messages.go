// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui is the view controller: the Bubble Tea program that owns the
// screens, routes events from the bus and the keyboard, and renders.
package ui

import (
	"github.com/jeranaias/djinn-tui/internal/api"
	"github.com/jeranaias/djinn-tui/internal/bus"
)

// =============================================================================
// MESSAGES
// =============================================================================

// busEventMsg wraps one dequeued bus event for the Bubble Tea loop. The
// pump delivers exactly one per wake-up, so keyboard messages interleave
// fairly with stream events.
type busEventMsg struct {
	msg bus.Msg
}

// daemonStatusMsg reports the startup health check.
type daemonStatusMsg struct {
	running bool
	version string
	err     error
}

// modelsLoadedMsg carries a refreshed model list.
type modelsLoadedMsg struct {
	models []api.ModelSummary
	err    error
}

// modelShownMsg carries a model's Modelfile for the editor. fromCache is
// set when the daemon was unreachable and the local copy served instead.
type modelShownMsg struct {
	name      string
	modelfile string
	fromCache bool
	err       error
}

// modelDeletedMsg reports a completed delete request.
type modelDeletedMsg struct {
	name string
	err  error
}

// modelfileSavedMsg reports a completed save to the data dir.
type modelfileSavedMsg struct {
	name string
	err  error
}

// statusNoteMsg sets the status bar message.
type statusNoteMsg struct {
	text    string
	isError bool
}
