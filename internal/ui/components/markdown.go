// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for djinn-tui.
package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// MarkdownRenderer renders assistant replies as terminal markdown. When
// disabled, or when glamour fails, text passes through unchanged so a bad
// reply can never blank the chat.
type MarkdownRenderer struct {
	enabled  bool
	width    int
	renderer *glamour.TermRenderer
}

// NewMarkdownRenderer creates a renderer. Width is applied lazily on the
// first render after SetWidth.
func NewMarkdownRenderer(enabled bool) *MarkdownRenderer {
	return &MarkdownRenderer{enabled: enabled, width: 80}
}

// Enabled reports whether markdown rendering is on.
func (m *MarkdownRenderer) Enabled() bool {
	return m.enabled
}

// SetWidth sets the word-wrap width. The underlying renderer is rebuilt on
// the next Render call.
func (m *MarkdownRenderer) SetWidth(width int) {
	if width == m.width {
		return
	}
	m.width = width
	m.renderer = nil
}

// Render converts markdown to styled terminal text, falling back to the
// raw input on any failure.
func (m *MarkdownRenderer) Render(text string) string {
	if !m.enabled || text == "" {
		return text
	}

	if m.renderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(m.width),
		)
		if err != nil {
			return text
		}
		m.renderer = r
	}

	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	// Glamour pads with blank lines that waste viewport rows.
	return strings.Trim(out, "\n")
}
