// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"errors"
	"strings"
	"testing"

	"github.com/jeranaias/djinn-tui/internal/api"
	"github.com/jeranaias/djinn-tui/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.New("dark")
}

// =============================================================================
// PROGRESS OVERLAY TESTS
// =============================================================================

func TestProgressOverlayLifecycle(t *testing.T) {
	p := NewProgressOverlay(testTheme(), "sid", "pull mistral:7b")
	if !p.Active() {
		t.Fatal("new overlay not active")
	}
	if p.Percent != -1 {
		t.Errorf("initial percent = %v, want -1", p.Percent)
	}

	p.Apply(api.StreamEvent{Kind: api.EventProgress, Status: "downloading", Percent: 42})
	if p.Status != "downloading" || p.Percent != 42 {
		t.Errorf("after progress: status %q percent %v", p.Status, p.Percent)
	}
	if !p.Active() {
		t.Error("overlay went inactive mid-stream")
	}

	p.Apply(api.StreamEvent{Kind: api.EventDone})
	if p.Active() {
		t.Error("overlay still active after done")
	}
	if p.Percent != 100 {
		t.Errorf("done percent = %v, want 100", p.Percent)
	}
}

func TestProgressOverlayError(t *testing.T) {
	p := NewProgressOverlay(testTheme(), "sid", "create demo")
	p.Apply(api.StreamEvent{Kind: api.EventError, Err: errors.New("blob missing")})

	if p.Active() {
		t.Error("overlay still active after error")
	}
	if !strings.Contains(p.View(80), "blob missing") {
		t.Error("error message not rendered")
	}
}

func TestProgressOverlayCancelled(t *testing.T) {
	p := NewProgressOverlay(testTheme(), "sid", "pull x")
	p.Apply(api.StreamEvent{Kind: api.EventCancelled})

	if p.Active() {
		t.Error("overlay still active after cancel")
	}
	if !strings.Contains(p.View(80), "cancelled") {
		t.Error("cancelled state not rendered")
	}
}

// =============================================================================
// STATUS BAR TESTS
// =============================================================================

func TestStatusBarRendersSections(t *testing.T) {
	s := NewStatusBar(testTheme())
	s.Screen = "chat"
	s.Host = "http://127.0.0.1:11434"
	s.Model = "mistral:7b"
	s.SetMessage("ready", false)
	s.SetWidth(120)

	out := s.View()
	for _, want := range []string{"CHAT", "11434", "mistral:7b", "ready"} {
		if !strings.Contains(out, want) {
			t.Errorf("status bar missing %q in %q", want, out)
		}
	}
}

func TestStatusBarErrorMessage(t *testing.T) {
	s := NewStatusBar(testTheme())
	s.Screen = "models"
	s.SetMessage("daemon unreachable", true)
	s.SetWidth(120)

	out := s.View()
	if !strings.Contains(out, styles.StatusIndicators.Error) {
		t.Error("error indicator missing")
	}
	if !strings.Contains(out, "daemon unreachable") {
		t.Error("error message missing")
	}
}

// =============================================================================
// MARKDOWN AND HIGHLIGHT TESTS
// =============================================================================

func TestMarkdownDisabledPassesThrough(t *testing.T) {
	m := NewMarkdownRenderer(false)
	in := "# Title\n\nsome *text*"
	if got := m.Render(in); got != in {
		t.Errorf("disabled renderer altered text: %q", got)
	}
}

func TestMarkdownRendersHeadings(t *testing.T) {
	m := NewMarkdownRenderer(true)
	m.SetWidth(60)
	out := m.Render("# Title\n\nbody")
	if !strings.Contains(out, "Title") || !strings.Contains(out, "body") {
		t.Errorf("rendered markdown lost content: %q", out)
	}
}

func TestHighlightModelfileKeepsContent(t *testing.T) {
	src := "FROM mistral:7b\nPARAMETER temperature 0.7\n"
	out := HighlightModelfile(src, "monokai")
	if !strings.Contains(out, "mistral:7b") {
		t.Errorf("highlight lost source text: %q", out)
	}
}

func TestHighlightUnknownStyleFallsBack(t *testing.T) {
	src := "FROM x\n"
	out := HighlightModelfile(src, "no-such-style")
	if !strings.Contains(out, "FROM") {
		t.Errorf("fallback lost source text: %q", out)
	}
}
