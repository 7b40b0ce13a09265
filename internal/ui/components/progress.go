// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for djinn-tui.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/djinn-tui/internal/api"
	"github.com/jeranaias/djinn-tui/internal/ui/styles"
)

// =============================================================================
// PROGRESS OVERLAY COMPONENT
// =============================================================================

// ProgressOverlay renders a model lifecycle operation (pull, create,
// quantize) as a boxed progress panel. It consumes the operation's stream
// events and stays on screen until a terminal event arrives.
type ProgressOverlay struct {
	SessionID string
	Label     string

	Status    string
	Percent   float64 // -1 while the daemon reports no total
	Err       error
	Done      bool
	Cancelled bool

	started time.Time
	theme   *styles.Theme
}

// NewProgressOverlay creates an overlay bound to one stream session.
func NewProgressOverlay(theme *styles.Theme, sessionID, label string) *ProgressOverlay {
	return &ProgressOverlay{
		SessionID: sessionID,
		Label:     label,
		Percent:   -1,
		started:   time.Now(),
		theme:     theme,
	}
}

// Apply consumes one stream event from the overlay's session.
func (p *ProgressOverlay) Apply(ev api.StreamEvent) {
	switch ev.Kind {
	case api.EventProgress:
		p.Status = ev.Status
		p.Percent = ev.Percent
	case api.EventDone:
		p.Done = true
		p.Percent = 100
	case api.EventError:
		p.Err = ev.Err
	case api.EventCancelled:
		p.Cancelled = true
	}
}

// Active reports whether the operation is still in flight.
func (p *ProgressOverlay) Active() bool {
	return !p.Done && !p.Cancelled && p.Err == nil
}

// View renders the overlay box.
func (p *ProgressOverlay) View(width int) string {
	inner := width - 8
	if inner < 24 {
		inner = 24
	}

	var lines []string
	lines = append(lines, p.theme.OverlayTitle.Render(p.Label))

	switch {
	case p.Err != nil:
		lines = append(lines, p.theme.OverlayError.Render(styles.StatusIndicators.Error+" "+p.Err.Error()))
	case p.Cancelled:
		lines = append(lines, p.theme.OverlayStatus.Render("cancelled"))
	case p.Done:
		lines = append(lines, p.theme.OverlayBarDone.Render(styles.RenderProgressBar(inner, 100)+" 100%"))
		lines = append(lines, p.theme.OverlayStatus.Render(styles.StatusIndicators.Success+" complete"))
	default:
		if p.Status != "" {
			lines = append(lines, p.theme.OverlayStatus.Render(p.Status))
		}
		if p.Percent >= 0 {
			bar := styles.RenderProgressBar(inner-5, p.Percent)
			lines = append(lines, p.theme.OverlayBar.Render(fmt.Sprintf("%s %3.0f%%", bar, p.Percent)))
		} else {
			lines = append(lines, p.theme.OverlayStatus.Render("working..."))
		}
		lines = append(lines, p.theme.Muted.Render("esc to cancel"))
	}

	elapsed := time.Since(p.started).Round(time.Second)
	lines = append(lines, p.theme.Muted.Render("elapsed "+elapsed.String()))

	return p.theme.OverlayBox.Render(strings.Join(lines, "\n"))
}
