// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/necx/necx-tui/internal/ui/styles"
)

// =============================================================================
// CONFIRM PROMPT
// =============================================================================

// ConfirmResultMsg is sent when a confirm prompt is answered.
type ConfirmResultMsg struct {
	// Tag is the caller-chosen value passed to Ask, such as a message id.
	Tag       string
	Confirmed bool
}

// Confirm is a yes/no prompt. It captures keys only while open.
type Confirm struct {
	Question string
	Tag      string
	open     bool
	theme    *styles.Theme
}

// NewConfirm creates a closed prompt.
func NewConfirm(theme *styles.Theme) Confirm {
	return Confirm{theme: theme}
}

// Ask opens the prompt.
func (c *Confirm) Ask(question, tag string) {
	c.Question = question
	c.Tag = tag
	c.open = true
}

// Open reports whether the prompt is waiting for an answer.
func (c Confirm) Open() bool {
	return c.open
}

// Update handles y/n/enter/esc. Any other key is swallowed while open.
func (c Confirm) Update(msg tea.Msg) (Confirm, tea.Cmd) {
	if !c.open {
		return c, nil
	}
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil
	}

	var confirmed bool
	switch k.String() {
	case "y", "Y", "enter":
		confirmed = true
	case "n", "N", "esc":
		confirmed = false
	default:
		return c, nil
	}

	c.open = false
	tag := c.Tag
	return c, func() tea.Msg { return ConfirmResultMsg{Tag: tag, Confirmed: confirmed} }
}

// View renders the prompt, or nothing when closed.
func (c Confirm) View() string {
	if !c.open {
		return ""
	}
	hint := c.theme.HelpKey.Render("y") + c.theme.HelpDesc.Render(" confirm  ") +
		c.theme.HelpKey.Render("n") + c.theme.HelpDesc.Render(" cancel")
	return c.theme.ConfirmBox.Render(lipgloss.JoinVertical(lipgloss.Left, c.Question, hint))
}
