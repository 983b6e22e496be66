// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/necx/necx-tui/internal/model"
	"github.com/necx/necx-tui/internal/ui/components"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages for the chat page.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.loading() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case components.ConfirmResultMsg:
		if msg.Confirmed && msg.Tag != "" {
			return m, deleteCmd(m.ctx, m.store, msg.Tag)
		}
		return m, nil

	case fetchMessagesMsg:
		return m, fetchMessagesCmd(m.ctx, m.store)

	case searchDebounceMsg:
		if msg.Seq == m.searchSeq {
			m.query = m.search.Value()
			m.msgCursor = 0
			m.refreshViewport(true)
		}
		return m, nil

	case sendDoneMsg:
		if msg.Err == nil {
			m.composer.Reset()
			m.refreshViewport(true)
		}
		return m, nil

	case editDoneMsg:
		if msg.Err == nil && msg.ID == m.editing {
			m.stopEditing()
		}
		return m, nil

	case userCreatedMsg:
		if msg.Err == nil {
			m.newUser.Reset()
			m.newUser.Blur()
			m.focus = FocusPeers
		}
		return m, nil

	case fetchDoneMsg, deleteDoneMsg:
		// State arrives through the subscription.
		return m, nil
	}

	return m, nil
}

// handleKey routes a key press to the focused pane.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.confirm.Open() {
		var cmd tea.Cmd
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	}

	switch m.focus {
	case FocusComposer:
		return m.handleComposerKey(msg)
	case FocusSearch:
		return m.handleSearchKey(msg)
	case FocusNewUser:
		return m.handleNewUserKey(msg)
	}

	// Shortcuts shared by the list panes.
	switch {
	case key.Matches(msg, m.keys.FocusNext):
		return m.focusNext()
	case key.Matches(msg, m.keys.FocusSelf):
		return m.setFocus(FocusSelf)
	case key.Matches(msg, m.keys.FocusPeers):
		return m.setFocus(FocusPeers)
	case key.Matches(msg, m.keys.Compose):
		return m.setFocus(FocusComposer)
	case key.Matches(msg, m.keys.Search):
		return m.setFocus(FocusSearch)
	case key.Matches(msg, m.keys.NewUser):
		return m.setFocus(FocusNewUser)
	case key.Matches(msg, m.keys.Retry):
		return m, refreshCmd(m.ctx, m.store)
	}

	switch m.focus {
	case FocusSelf, FocusPeers:
		return m.handleListKey(msg)
	case FocusMessages:
		return m.handleMessagesKey(msg)
	}
	return m, nil
}

// =============================================================================
// FOCUS
// =============================================================================

func (m Model) focusNext() (Model, tea.Cmd) {
	next := cycle[0]
	for i, f := range cycle {
		if f == m.focus {
			next = cycle[(i+1)%len(cycle)]
			break
		}
	}
	if next == FocusComposer && !m.snap.Conversation().Valid() {
		next = cycle[0]
	}
	return m.setFocus(next)
}

func (m Model) setFocus(f Focus) (Model, tea.Cmd) {
	if f == FocusComposer && !m.snap.Conversation().Valid() {
		// The composer stays disabled until both participants are set.
		return m, nil
	}

	m.composer.Blur()
	m.search.Blur()
	m.newUser.Blur()
	m.focus = f

	var cmd tea.Cmd
	switch f {
	case FocusComposer:
		cmd = m.composer.Focus()
	case FocusSearch:
		cmd = m.search.Focus()
	case FocusNewUser:
		cmd = m.newUser.Focus()
	}
	m.layout()
	return m, cmd
}

// =============================================================================
// LIST PANES
// =============================================================================

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	cursor, n := &m.selfCursor, len(m.snap.Users)
	if m.focus == FocusPeers {
		cursor, n = &m.peerCursor, len(m.peers())
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if *cursor > 0 {
			*cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if *cursor < n-1 {
			*cursor++
		}
	case key.Matches(msg, m.keys.Select):
		if n == 0 {
			return m, nil
		}
		if m.focus == FocusSelf {
			u := m.snap.Users[*cursor]
			m.store.SetCurrentUser(&u)
			m.focus = FocusPeers
		} else {
			u := m.peers()[*cursor]
			m.store.SelectUser(&u)
			m.focus = FocusMessages
		}
		m.msgCursor = 0
		return m, scheduleFetch()
	case key.Matches(msg, m.keys.ClearSelect):
		if m.focus == FocusSelf {
			m.store.SetCurrentUser(nil)
		} else {
			m.store.SelectUser(nil)
		}
		return m, scheduleFetch()
	}
	return m, nil
}

// =============================================================================
// MESSAGE LIST
// =============================================================================

func (m Model) handleMessagesKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	msgs, _ := m.visibleMessages()

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.msgCursor > 0 {
			m.msgCursor--
		}
		m.refreshViewport(false)
	case key.Matches(msg, m.keys.Down):
		if m.msgCursor < len(msgs)-1 {
			m.msgCursor++
		}
		m.refreshViewport(false)
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
	case key.Matches(msg, m.keys.Edit):
		sel, ok := m.selectedMessage()
		if !ok || !sel.IsOwnedBy(m.snap.CurrentUser) {
			return m, nil
		}
		m.editing = sel.ID
		m.composer.SetValue(sel.Content)
		m.composer.Placeholder = "Edit message..."
		return m.setFocus(FocusComposer)
	case key.Matches(msg, m.keys.Delete):
		sel, ok := m.selectedMessage()
		if !ok || !sel.IsOwnedBy(m.snap.CurrentUser) {
			return m, nil
		}
		m.confirm.Ask("Delete this message?", sel.ID)
	case key.Matches(msg, m.keys.Cancel):
		if m.query != "" {
			m.clearSearch()
		}
	}
	return m, nil
}

// =============================================================================
// TEXT INPUTS
// =============================================================================

func (m Model) handleComposerKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		if m.editing != "" {
			m.stopEditing()
		}
		return m.setFocus(FocusMessages)

	case key.Matches(msg, m.keys.Submit):
		content := m.composer.Value()
		if m.editing != "" {
			return m, editCmd(m.ctx, m.store, m.editing, content)
		}
		if m.snap.Status.SendMessage.Loading || strings.TrimSpace(content) == "" {
			return m, nil
		}
		return m, sendCmd(m.ctx, m.store, content)
	}

	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.clearSearch()
		return m.setFocus(FocusMessages)
	case key.Matches(msg, m.keys.Submit):
		// Apply immediately and move to the results.
		m.searchSeq++
		m.query = m.search.Value()
		m.msgCursor = 0
		m.refreshViewport(true)
		return m.setFocus(FocusMessages)
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return m, cmd
	}
	m.searchSeq++
	return m, tea.Batch(cmd, debounceSearch(m.searchSeq))
}

func (m Model) handleNewUserKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.newUser.Reset()
		return m.setFocus(FocusPeers)
	case key.Matches(msg, m.keys.Submit):
		return m, createUserCmd(m.ctx, m.store, m.newUser.Value())
	}

	var cmd tea.Cmd
	m.newUser, cmd = m.newUser.Update(msg)
	return m, cmd
}

func (m *Model) stopEditing() {
	m.editing = ""
	m.composer.Reset()
	m.composer.Placeholder = "Type a message..."
}

func (m *Model) clearSearch() {
	m.search.Reset()
	m.searchSeq++
	m.query = ""
	m.msgCursor = 0
	m.refreshViewport(true)
}

// queryActive reports whether the list is showing search results.
func (m Model) queryActive() bool {
	return model.CharCount(strings.TrimSpace(m.query)) >= model.SearchMinChars
}
