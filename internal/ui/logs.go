// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui is the view controller for djinn-tui.
package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/djinn-tui/internal/keymap"
	"github.com/jeranaias/djinn-tui/internal/ui/styles"
)

// =============================================================================
// LOG VIEWER SCREEN
// =============================================================================

// logsScreen shows a live tail of the session log. The buffer is bounded;
// once full, the oldest line is evicted for each new one.
type logsScreen struct {
	theme *styles.Theme

	lines []string
	max   int

	viewport viewport.Model
	dirty    bool
	ready    bool

	width  int
	height int
}

func newLogsScreen(theme *styles.Theme, bufferLines int) *logsScreen {
	if bufferLines < 1 {
		bufferLines = 2000
	}
	return &logsScreen{theme: theme, max: bufferLines}
}

func (l *logsScreen) setSize(width, height int) {
	l.width = width
	l.height = height

	vpHeight := height - 1
	if vpHeight < 1 {
		vpHeight = 1
	}
	if !l.ready {
		l.viewport = viewport.New(width, vpHeight)
		l.ready = true
	} else {
		l.viewport.Width = width
		l.viewport.Height = vpHeight
	}
	l.dirty = true
	l.syncViewport()
}

// appendLine adds one tailed line, evicting the oldest past capacity. The
// viewport rebuild waits for the next redraw tick.
func (l *logsScreen) appendLine(line string) {
	l.lines = append(l.lines, line)
	if len(l.lines) > l.max {
		l.lines = l.lines[len(l.lines)-l.max:]
	}
	l.dirty = true
}

func (l *logsScreen) syncViewport() {
	if !l.dirty || !l.ready {
		return
	}
	atBottom := l.viewport.AtBottom()
	l.viewport.SetContent(l.theme.LogLine.Render(strings.Join(l.lines, "\n")))
	if atBottom {
		l.viewport.GotoBottom()
	}
	l.dirty = false
}

// =============================================================================
// ACTIONS
// =============================================================================

func (l *logsScreen) handleAction(action keymap.Action) tea.Cmd {
	switch action {
	case keymap.ActionUp:
		l.viewport.LineUp(1)
	case keymap.ActionDown:
		l.viewport.LineDown(1)
	case keymap.ActionPageUp:
		l.viewport.ViewUp()
	case keymap.ActionPageDown:
		l.viewport.ViewDown()
	case keymap.ActionTop:
		l.viewport.GotoTop()
	case keymap.ActionBottom:
		l.viewport.GotoBottom()
	}
	return nil
}

func (l *logsScreen) view() string {
	if !l.ready {
		return ""
	}
	hint := l.theme.HintDesc.Render("j/k scroll  g/G top/bottom  esc back")
	return l.viewport.View() + "\n" + hint
}
