// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/necx/necx-tui/internal/model"
	"github.com/necx/necx-tui/internal/state"
	"github.com/necx/necx-tui/internal/ui/components"
	"github.com/necx/necx-tui/internal/ui/styles"
)

// =============================================================================
// FOCUS
// =============================================================================

// Focus is the pane that receives keys.
type Focus int

const (
	FocusSelf     Focus = iota // "You are:" list
	FocusPeers                 // "Chat with:" list
	FocusMessages              // Message list
	FocusComposer              // Message input
	FocusSearch                // Search box
	FocusNewUser               // Create-user form
)

// cycle is the shift+tab order. Search and the create-user form are only
// reached through their own keys.
var cycle = []Focus{FocusSelf, FocusPeers, FocusMessages, FocusComposer}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat page.
type Model struct {
	ctx   context.Context
	store *state.Store
	theme *styles.Theme
	keys  KeyMap

	// Latest store snapshot
	snap state.State

	// Dimensions
	width  int
	height int

	// Focus and list cursors
	focus      Focus
	selfCursor int
	peerCursor int
	msgCursor  int

	// Sub-components
	viewport viewport.Model
	composer textarea.Model
	search   textinput.Model
	newUser  textinput.Model
	spinner  spinner.Model
	confirm  components.Confirm
	markdown *components.Markdown

	// Search state: query is the debounced value the list is filtered by.
	query     string
	searchSeq int

	// editing holds the id of the message being edited, if any.
	editing string

	spinning bool
}

// New creates the chat page. Store operations started from the page run
// under ctx.
func New(ctx context.Context, store *state.Store, theme *styles.Theme, md *components.Markdown) Model {
	if ctx == nil {
		ctx = context.Background()
	}

	ta := textarea.New()
	ta.Placeholder = "Type a message..."
	ta.CharLimit = model.MaxMessageLength
	ta.ShowLineNumbers = false
	ta.Prompt = "> "
	ta.SetHeight(3)
	// Enter sends; newlines use alt+enter.
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")

	si := textinput.New()
	si.Prompt = "Search: "
	si.Placeholder = "Type to search..."
	si.CharLimit = 256

	nu := textinput.New()
	nu.Prompt = "+ "
	nu.Placeholder = "New user name"
	nu.CharLimit = model.MaxNameLength

	sp := spinner.New(
		spinner.WithSpinner(styles.LineSpinner),
		spinner.WithStyle(theme.Spinner),
	)

	return Model{
		ctx:      ctx,
		store:    store,
		theme:    theme,
		keys:     DefaultKeyMap(),
		snap:     store.Snapshot(),
		focus:    FocusSelf,
		viewport: viewport.New(80, 20),
		composer: ta,
		search:   si,
		newUser:  nu,
		spinner:  sp,
		confirm:  components.NewConfirm(theme),
		markdown: md,
	}
}

// Init fetches the active conversation, if any.
func (m Model) Init() tea.Cmd {
	if m.snap.Conversation().Valid() {
		return fetchMessagesCmd(m.ctx, m.store)
	}
	return nil
}

// SetState installs a new store snapshot. Snapshots older than the one
// already shown are ignored.
func (m Model) SetState(s state.State) (Model, tea.Cmd) {
	if s.Version < m.snap.Version {
		return m, nil
	}
	m.snap = s
	m.clampCursors()
	if !m.snap.Conversation().Valid() && m.focus == FocusComposer {
		m.composer.Blur()
		m.focus = FocusPeers
	}
	m.refreshViewport(false)
	return m, m.startSpinner()
}

// SetSize updates the page dimensions.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	m.layout()
	m.refreshViewport(false)
	return m
}

// Typing reports whether a text field has focus, so the caller should not
// treat printable keys as shortcuts.
func (m Model) Typing() bool {
	switch m.focus {
	case FocusComposer, FocusSearch, FocusNewUser:
		return true
	}
	return m.confirm.Open()
}

// Focused returns the focused pane.
func (m Model) Focused() Focus {
	return m.focus
}

// State returns the snapshot the page is showing.
func (m Model) State() state.State {
	return m.snap
}

// =============================================================================
// DERIVED DATA
// =============================================================================

// peers returns the "Chat with:" list.
func (m Model) peers() []model.User {
	return state.PeersFor(m.snap)
}

// visibleMessages returns the messages the list shows: search results while
// a search is active, otherwise the whole conversation.
func (m Model) visibleMessages() (msgs []model.Message, searching bool) {
	if results, ok := state.SearchMessages(m.snap.Messages, m.query); ok {
		return results, true
	}
	return m.snap.Messages, false
}

// selectedMessage returns the message under the cursor.
func (m Model) selectedMessage() (model.Message, bool) {
	msgs, _ := m.visibleMessages()
	if m.msgCursor < 0 || m.msgCursor >= len(msgs) {
		return model.Message{}, false
	}
	return msgs[m.msgCursor], true
}

func (m *Model) clampCursors() {
	m.selfCursor = clamp(m.selfCursor, len(m.snap.Users))
	m.peerCursor = clamp(m.peerCursor, len(m.peers()))
	msgs, _ := m.visibleMessages()
	m.msgCursor = clamp(m.msgCursor, len(msgs))
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (m Model) loading() bool {
	st := m.snap.Status
	return st.Users.Loading || st.Messages.Loading || st.SendMessage.Loading
}

func (m *Model) startSpinner() tea.Cmd {
	if m.spinning || !m.loading() {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}
