// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/necx/necx-tui/internal/ui/styles"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat page.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Select      key.Binding
	ClearSelect key.Binding
	FocusNext   key.Binding
	FocusSelf   key.Binding
	FocusPeers  key.Binding
	Compose     key.Binding
	Search      key.Binding
	NewUser     key.Binding
	Edit        key.Binding
	Delete      key.Binding
	Retry       key.Binding
	Submit      key.Binding
	Newline     key.Binding
	Cancel      key.Binding
}

// DefaultKeyMap returns the default key bindings for the chat page.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "move down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("PgUp/C-u", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("PgDn/C-d", "page down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("Enter", "select"),
		),
		ClearSelect: key.NewBinding(
			key.WithKeys("x", "backspace"),
			key.WithHelp("x", "clear"),
		),
		FocusNext: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-Tab", "next pane"),
		),
		FocusSelf: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "you are"),
		),
		FocusPeers: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "chat with"),
		),
		Compose: key.NewBinding(
			key.WithKeys("i", "c"),
			key.WithHelp("i", "write"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		NewUser: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new user"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		Newline: key.NewBinding(
			key.WithKeys("alt+enter", "ctrl+j"),
			key.WithHelp("A-Enter", "newline"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "back"),
		),
	}
}

// =============================================================================
// HELP
// =============================================================================

// helpFor returns the bindings worth showing for the focused pane.
func (k KeyMap) helpFor(f Focus) []key.Binding {
	switch f {
	case FocusSelf, FocusPeers:
		return []key.Binding{k.Select, k.ClearSelect, k.NewUser, k.FocusNext, k.Search}
	case FocusMessages:
		return []key.Binding{k.Up, k.Edit, k.Delete, k.Compose, k.Search, k.Retry}
	case FocusComposer:
		return []key.Binding{k.Submit, k.Newline, k.Cancel}
	default:
		return []key.Binding{k.Submit, k.Cancel}
	}
}

// renderHelp renders bindings as "key desc" pairs.
func renderHelp(theme *styles.Theme, bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, theme.HelpKey.Render(h.Key)+" "+theme.HelpDesc.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}
