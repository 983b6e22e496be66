// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/necx/necx-tui/internal/ui/styles"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Brand texts shown in the header.
const (
	BrandTitle    = "NECX Messaging App"
	BrandSubtitle = "Personal messaging interface"
)

// Tab identifies one of the top-level pages.
type Tab int

const (
	TabChat Tab = iota
	TabUsers
)

// Tabs lists the pages in display order.
var Tabs = []Tab{TabChat, TabUsers}

// String returns the tab label.
func (t Tab) String() string {
	switch t {
	case TabChat:
		return "Chat"
	case TabUsers:
		return "Users"
	default:
		return "Unknown"
	}
}

// Next returns the tab after t, wrapping around.
func (t Tab) Next() Tab {
	return Tabs[(int(t)+1)%len(Tabs)]
}

// Header is the title bar: brand on the left, page tabs on the right.
type Header struct {
	Active Tab
	Width  int
	// Status is an optional short note rendered under the brand, such as
	// the backend address or "offline".
	Status string
	theme  *styles.Theme
}

// NewHeader creates a header on the chat tab.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Active: TabChat,
		Width:  80,
		theme:  theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// View renders the header.
func (h *Header) View() string {
	width := h.Width
	if width < 40 {
		width = 40
	}
	inner := width - 2

	brand := h.theme.HeaderTitle.Render(BrandTitle)
	subtitle := BrandSubtitle
	if h.Status != "" {
		subtitle += " · " + h.Status
	}
	left := lipgloss.JoinVertical(lipgloss.Left, brand, h.theme.HeaderSubtitle.Render(subtitle))

	tabs := make([]string, 0, len(Tabs))
	for i, t := range Tabs {
		label := "F" + string(rune('1'+i)) + " " + t.String()
		if t == h.Active {
			tabs = append(tabs, h.theme.TabActive.Render(label))
		} else {
			tabs = append(tabs, h.theme.Tab.Render(label))
		}
	}
	right := strings.Join(tabs, " ")

	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		// Narrow terminals: stack tabs under the brand.
		return h.theme.Header.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, brand, right))
	}

	row := lipgloss.JoinHorizontal(lipgloss.Center, left, strings.Repeat(" ", gap), right)
	return h.theme.Header.Width(width).Render(row)
}
