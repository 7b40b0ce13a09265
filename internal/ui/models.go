// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui is the view controller for djinn-tui.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/djinn-tui/internal/api"
	"github.com/jeranaias/djinn-tui/internal/keymap"
	"github.com/jeranaias/djinn-tui/internal/storage"
	"github.com/jeranaias/djinn-tui/internal/ui/styles"
	"github.com/jeranaias/djinn-tui/internal/util"
)

// =============================================================================
// MODEL LIST SCREEN
// =============================================================================

// modelsScreen lists the daemon's installed models with refresh, pull,
// delete, and open-in-editor actions.
type modelsScreen struct {
	theme  *styles.Theme
	client *api.Client
	store  *storage.Store

	rows    []api.ModelSummary
	cursor  int
	loading bool

	// Inline prompt for the pull target name.
	prompt    textinput.Model
	prompting bool

	width  int
	height int

	startPull func(name string) tea.Cmd
}

func newModelsScreen(theme *styles.Theme, client *api.Client, store *storage.Store, startPull func(string) tea.Cmd) *modelsScreen {
	ti := textinput.New()
	ti.Prompt = "pull> "
	ti.Placeholder = "model name, e.g. mistral:7b"
	ti.CharLimit = 128

	return &modelsScreen{
		theme:     theme,
		client:    client,
		store:     store,
		prompt:    ti,
		startPull: startPull,
	}
}

func (m *modelsScreen) setSize(width, height int) {
	m.width = width
	m.height = height
	m.prompt.Width = width - 8
}

func (m *modelsScreen) setModels(models []api.ModelSummary) {
	m.rows = models
	m.loading = false
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *modelsScreen) selected() (api.ModelSummary, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return api.ModelSummary{}, false
	}
	return m.rows[m.cursor], true
}

func (m *modelsScreen) capturesInput() bool {
	return m.prompting
}

// =============================================================================
// ACTIONS AND KEYS
// =============================================================================

func (m *modelsScreen) handleAction(action keymap.Action) tea.Cmd {
	switch action {
	case keymap.ActionUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case keymap.ActionDown:
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case keymap.ActionTop:
		m.cursor = 0
	case keymap.ActionBottom:
		if len(m.rows) > 0 {
			m.cursor = len(m.rows) - 1
		}
	case keymap.ActionRefresh:
		m.loading = true
		return listModelsCmd(m.client)
	case keymap.ActionPull:
		m.prompting = true
		m.prompt.Reset()
		return m.prompt.Focus()
	case keymap.ActionDelete:
		row, ok := m.selected()
		if !ok {
			return nil
		}
		return deleteModelCmd(m.client, row.Name)
	case keymap.ActionEdit:
		row, ok := m.selected()
		if !ok {
			return nil
		}
		return showModelCmd(m.client, m.store, row.Name)
	}
	return nil
}

func (m *modelsScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	if !m.prompting {
		return nil
	}

	switch msg.String() {
	case "enter":
		name := strings.TrimSpace(m.prompt.Value())
		m.prompting = false
		m.prompt.Blur()
		if name == "" {
			return nil
		}
		return m.startPull(name)
	case "esc":
		m.prompting = false
		m.prompt.Blur()
		return nil
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return cmd
}

// =============================================================================
// RENDERING
// =============================================================================

const (
	colName     = 36
	colSize     = 10
	colModified = 16
)

func (m *modelsScreen) view() string {
	var b strings.Builder

	header := fmt.Sprintf("%-*s  %*s  %-*s", colName, "NAME", colSize, "SIZE", colModified, "MODIFIED")
	b.WriteString(m.theme.TableHeader.Render(header))
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(m.theme.Muted.Render("loading..."))
	case len(m.rows) == 0:
		b.WriteString(m.theme.Muted.Render("no models installed: press p to pull one"))
	default:
		visible := m.height - 4
		if visible < 1 {
			visible = 1
		}
		start := 0
		if m.cursor >= visible {
			start = m.cursor - visible + 1
		}
		for i := start; i < len(m.rows) && i < start+visible; i++ {
			row := m.rows[i]
			line := fmt.Sprintf("%-*s  %*s  %-*s",
				colName, util.TruncateWidth(row.Name, colName),
				colSize, util.FormatBytes(row.Size),
				colModified, row.ModifiedAt.Format("2006-01-02 15:04"))
			if i == m.cursor {
				b.WriteString(m.theme.TableSelected.Render(line))
			} else {
				b.WriteString(m.theme.TableRow.Render(line))
			}
			b.WriteString("\n")
		}
	}

	if m.prompting {
		b.WriteString("\n")
		b.WriteString(m.prompt.View())
	}

	b.WriteString("\n")
	b.WriteString(m.theme.HintDesc.Render("r refresh  p pull  d delete  e edit  esc back"))
	return b.String()
}
