// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// Markdown renders message bodies through glamour. Renderers are created
// lazily per wrap width and cached. A nil or disabled Markdown returns the
// text unchanged.
type Markdown struct {
	Enabled bool

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
}

// NewMarkdown creates a renderer.
func NewMarkdown(enabled bool) *Markdown {
	return &Markdown{
		Enabled:   enabled,
		renderers: make(map[int]*glamour.TermRenderer),
	}
}

// Render renders content wrapped at width. It falls back to the original
// text when rendering fails.
func (m *Markdown) Render(content string, width int) string {
	if m == nil || !m.Enabled || width < 10 {
		return content
	}

	r := m.renderer(width)
	if r == nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

func (m *Markdown) renderer(width int) *glamour.TermRenderer {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.renderers[width]; ok {
		return r
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		r = nil
	}
	m.renderers[width] = r
	return r
}
