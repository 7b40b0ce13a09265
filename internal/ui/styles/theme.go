// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for djinn-tui.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the application. It detects the
// terminal's color capability and adjusts accordingly.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	// Header and layout
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style

	// Chat messages
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	SystemLabel    lipgloss.Style
	MessageBody    lipgloss.Style

	// Input
	InputPrompt lipgloss.Style

	// Status bar
	StatusBar    lipgloss.Style
	StatusKey    lipgloss.Style
	StatusValue  lipgloss.Style
	StatusOK     lipgloss.Style
	StatusError  lipgloss.Style
	StatusActive lipgloss.Style

	// Model table
	TableHeader   lipgloss.Style
	TableRow      lipgloss.Style
	TableSelected lipgloss.Style

	// Log viewer
	LogLine lipgloss.Style

	// Progress overlay
	OverlayBox     lipgloss.Style
	OverlayTitle   lipgloss.Style
	OverlayStatus  lipgloss.Style
	OverlayBar     lipgloss.Style
	OverlayBarDone lipgloss.Style
	OverlayError   lipgloss.Style

	// Editor
	EditorError lipgloss.Style

	// Spinner and hints
	Spinner  lipgloss.Style
	HintKey  lipgloss.Style
	HintDesc lipgloss.Style
	Muted    lipgloss.Style
}

// New creates a theme for the configured mode. Mode "dark" or "light"
// forces background detection; "auto" asks the terminal.
func New(mode string) *Theme {
	isDark := termenv.HasDarkBackground()
	switch mode {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	}
	lipgloss.DefaultRenderer().SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.AssistantLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.SystemLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Amber)

	t.MessageBody = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.StatusKey = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.StatusValue = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.StatusOK = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.StatusError = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.StatusActive = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)

	t.TableHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay)

	t.TableRow = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.TableSelected = lipgloss.NewStyle().
		Background(Purple).
		Foreground(TextInverse).
		Bold(true)

	t.LogLine = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.OverlayBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 2)

	t.OverlayTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.OverlayStatus = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.OverlayBar = lipgloss.NewStyle().
		Foreground(Amber)

	t.OverlayBarDone = lipgloss.NewStyle().
		Foreground(Emerald)

	t.OverlayError = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.EditorError = lipgloss.NewStyle().
		Foreground(Rose)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)

	t.HintKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.HintDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Muted = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// =============================================================================
// PROGRESS BAR
// =============================================================================

// RenderProgressBar creates a progress bar string. Percent is clamped to
// [0, 100]; a width below 2 renders nothing.
func RenderProgressBar(width int, percent float64) string {
	if width < 2 {
		return ""
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	inner := width - 2
	filled := int(percent / 100 * float64(inner))
	if filled > inner {
		filled = inner
	}

	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", inner-filled) + "]"
}
