// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

// =============================================================================
// PROGRESS BAR TESTS
// =============================================================================

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		width   int
		percent float64
		want    string
	}{
		{12, 0, "[----------]"},
		{12, 50, "[#####-----]"},
		{12, 100, "[##########]"},
		{12, -10, "[----------]"},
		{12, 250, "[##########]"},
	}

	for _, tt := range tests {
		if got := RenderProgressBar(tt.width, tt.percent); got != tt.want {
			t.Errorf("RenderProgressBar(%d, %.0f) = %q, want %q", tt.width, tt.percent, got, tt.want)
		}
	}
}

func TestRenderProgressBarNarrow(t *testing.T) {
	if got := RenderProgressBar(1, 50); got != "" {
		t.Errorf("width 1 = %q, want empty", got)
	}
}

func TestRenderProgressBarLength(t *testing.T) {
	for _, w := range []int{2, 10, 40, 80} {
		got := RenderProgressBar(w, 33)
		if len(got) != w {
			t.Errorf("width %d rendered %d cells", w, len(got))
		}
		if !strings.HasPrefix(got, "[") || !strings.HasSuffix(got, "]") {
			t.Errorf("bar %q missing brackets", got)
		}
	}
}

// =============================================================================
// THEME TESTS
// =============================================================================

func TestNewThemeModes(t *testing.T) {
	dark := New("dark")
	if !dark.IsDark {
		t.Error("dark theme reports IsDark = false")
	}
	light := New("light")
	if light.IsDark {
		t.Error("light theme reports IsDark = true")
	}
	// Auto must not panic outside a terminal; the detected value is
	// environment-dependent and not asserted.
	_ = New("auto")
}
