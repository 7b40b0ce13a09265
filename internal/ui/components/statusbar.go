// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for djinn-tui.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/djinn-tui/internal/ui/styles"
	"github.com/jeranaias/djinn-tui/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// StatusBar is the single-line bottom status bar: active screen, daemon
// host, default model, and the last status or error message.
type StatusBar struct {
	Screen  string
	Host    string
	Model   string
	Message string
	IsError bool
	Spinner string // current spinner frame, empty when nothing is in flight
	Width   int

	theme *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, theme: theme}
}

// SetWidth updates the available width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetMessage replaces the transient status message.
func (s *StatusBar) SetMessage(msg string, isError bool) {
	s.Message = msg
	s.IsError = isError
}

// View renders the status bar.
func (s *StatusBar) View() string {
	sep := s.theme.Muted.Render(" | ")

	parts := []string{s.theme.StatusActive.Render(strings.ToUpper(s.Screen))}
	if s.Host != "" {
		parts = append(parts, s.theme.StatusValue.Render(util.TruncateWidth(s.Host, 30)))
	}
	if s.Model != "" {
		parts = append(parts, s.theme.StatusValue.Render(util.TruncateWidth(s.Model, 24)))
	}
	if s.Spinner != "" {
		parts = append(parts, s.theme.Spinner.Render(s.Spinner))
	}
	if s.Message != "" {
		msgStyle := s.theme.StatusOK
		icon := styles.StatusIndicators.Success
		if s.IsError {
			msgStyle = s.theme.StatusError
			icon = styles.StatusIndicators.Error
		}
		parts = append(parts, msgStyle.Render(icon+" "+util.TruncateWidth(s.Message, s.messageWidth())))
	}

	line := strings.Join(parts, sep)
	// MaxWidth is ANSI-aware; TruncateWidth would cut inside escape codes.
	return s.theme.StatusBar.Width(s.Width).MaxWidth(s.Width).Render(line)
}

// messageWidth bounds the message so the fixed sections stay visible.
func (s *StatusBar) messageWidth() int {
	w := s.Width - lipgloss.Width(s.Screen) - lipgloss.Width(s.Host) - lipgloss.Width(s.Model) - 16
	if w < 16 {
		w = 16
	}
	return w
}
