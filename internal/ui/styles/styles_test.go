// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestNewTheme(t *testing.T) {
	theme := NewTheme()
	if theme == nil {
		t.Fatal("NewTheme returned nil")
	}
	if out := theme.OwnBubble.Render("hi"); !strings.Contains(out, "hi") {
		t.Errorf("OwnBubble lost content: %q", out)
	}
}

func TestTheme_LayoutMode(t *testing.T) {
	tests := []struct {
		width   int
		mode    LayoutMode
		sidebar int
	}{
		{40, LayoutNarrow, 0},
		{80, LayoutMedium, 26},
		{140, LayoutWide, 32},
	}

	theme := NewTheme()
	for _, tt := range tests {
		theme.SetSize(tt.width, 40)
		if got := theme.GetLayoutMode(); got != tt.mode {
			t.Errorf("width %d: mode = %v, want %v", tt.width, got, tt.mode)
		}
		if got := theme.SidebarWidth(); got != tt.sidebar {
			t.Errorf("width %d: sidebar = %d, want %d", tt.width, got, tt.sidebar)
		}
	}
}

func TestRenderHelpers_IncludeIndicators(t *testing.T) {
	tests := []struct {
		got       string
		indicator string
	}{
		{RenderSuccess("saved"), StatusIndicators.Success},
		{RenderError("failed"), StatusIndicators.Error},
		{RenderWarning("careful"), StatusIndicators.Warning},
		{RenderInfo("note"), StatusIndicators.Info},
	}
	for _, tt := range tests {
		if !strings.Contains(tt.got, tt.indicator) {
			t.Errorf("%q missing indicator %q", tt.got, tt.indicator)
		}
	}
}

func TestSpinnerFrames(t *testing.T) {
	for name, s := range map[string][]string{"line": LineSpinner.Frames, "dots": DotsSpinner.Frames} {
		if len(s) == 0 {
			t.Errorf("%s spinner has no frames", name)
		}
	}
}
