// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package users provides the users directory page of the TUI.
package users

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/necx/necx-tui/internal/model"
	"github.com/necx/necx-tui/internal/state"
	"github.com/necx/necx-tui/internal/ui/components"
	"github.com/necx/necx-tui/internal/ui/styles"
	"github.com/necx/necx-tui/internal/util"
)

// =============================================================================
// KEYS AND MESSAGES
// =============================================================================

// KeyMap defines the bindings of the users page.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Search  key.Binding
	Refresh key.Binding
	Cancel  key.Binding
	Submit  key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("up/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("down/j", "down")),
		Search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "clear")),
		Submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "done")),
	}
}

// fetchDoneMsg reports a completed directory load.
type fetchDoneMsg struct {
	Err error
}

func fetchCmd(ctx context.Context, store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return fetchDoneMsg{Err: store.FetchUsers(ctx)}
	}
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the users directory page.
type Model struct {
	ctx   context.Context
	store *state.Store
	theme *styles.Theme
	keys  KeyMap

	snap   state.State
	width  int
	height int

	search    textinput.Model
	searching bool
	cursor    int
	offset    int

	spinner  spinner.Model
	spinning bool

	// now is the clock used for "joined" times.
	now func() time.Time
}

// New creates the users page.
func New(ctx context.Context, store *state.Store, theme *styles.Theme) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	si := textinput.New()
	si.Prompt = "Search: "
	si.Placeholder = "Filter by name..."
	si.CharLimit = model.MaxNameLength

	return Model{
		ctx:     ctx,
		store:   store,
		theme:   theme,
		keys:    DefaultKeyMap(),
		snap:    store.Snapshot(),
		search:  si,
		spinner: spinner.New(spinner.WithSpinner(styles.LineSpinner), spinner.WithStyle(theme.Spinner)),
		now:     time.Now,
	}
}

// Enter loads the directory. The app calls it whenever the page is shown.
func (m Model) Enter() tea.Cmd {
	return fetchCmd(m.ctx, m.store)
}

// SetState installs a new store snapshot, ignoring older ones.
func (m Model) SetState(s state.State) (Model, tea.Cmd) {
	if s.Version < m.snap.Version {
		return m, nil
	}
	m.snap = s
	m.clamp()
	if m.spinning || !s.Status.Users.Loading {
		return m, nil
	}
	m.spinning = true
	return m, m.spinner.Tick
}

// SetSize updates the page dimensions.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	m.search.Width = width - 12
	m.clamp()
	return m
}

// Typing reports whether the search box has focus.
func (m Model) Typing() bool {
	return m.searching
}

// Visible returns the users matching the current filter.
func (m Model) Visible() []model.User {
	return state.FilterUsers(m.snap.Users, m.search.Value())
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages for the users page.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.snap.Status.Users.Loading {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case fetchDoneMsg:
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.Visible())-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		cmd := m.search.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Refresh):
		return m, m.Enter()
	case key.Matches(msg, m.keys.Cancel):
		m.search.Reset()
		m.clamp()
	}
	m.clamp()
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.search.Reset()
		fallthrough
	case key.Matches(msg, m.keys.Submit):
		m.searching = false
		m.search.Blur()
		m.cursor = 0
		m.clamp()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.cursor = 0
	m.clamp()
	return m, cmd
}

// clamp keeps the cursor on a visible card and the card inside the window.
func (m *Model) clamp() {
	n := len(m.Visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	rows := m.rows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// rows is how many cards fit on screen.
func (m Model) rows() int {
	r := (m.height - 5) / cardHeight
	if r < 1 {
		r = 1
	}
	return r
}

// =============================================================================
// VIEW
// =============================================================================

const cardHeight = 2

// View renders the users page.
func (m Model) View() string {
	t := m.theme
	visible := m.Visible()

	stats := t.StatsLabel.Render("Total Users: ") + t.StatsValue.Render(strconv.Itoa(len(m.snap.Users))) +
		t.StatsLabel.Render("   Shown: ") + t.StatsValue.Render(strconv.Itoa(len(visible)))
	if m.snap.Status.Users.Loading {
		stats += "   " + m.spinner.View() + " " + t.Label.Render("Loading users...")
	}

	parts := []string{t.PaneTitle.Render("Users directory"), stats}
	if m.searching || m.search.Value() != "" {
		parts = append(parts, m.search.View())
	}

	switch {
	case m.snap.Status.Users.Error != "":
		parts = append(parts, "",
			t.ErrorText.Render("Error: "+m.snap.Status.Users.Error),
			t.HelpDesc.Render("Press r to retry"))
	case len(m.snap.Users) == 0 && !m.snap.Status.Users.Loading:
		parts = append(parts, "", t.EmptyState.Render("No users yet. Create one from the chat page with n."))
	case len(visible) == 0 && len(m.snap.Users) > 0:
		parts = append(parts, "", t.EmptyState.Render("No users match your search."))
	default:
		end := m.offset + m.rows()
		if end > len(visible) {
			end = len(visible)
		}
		for i := m.offset; i < end; i++ {
			parts = append(parts, m.renderCard(visible[i], i == m.cursor))
		}
	}

	help := []string{}
	for _, b := range []key.Binding{m.keys.Up, m.keys.Search, m.keys.Refresh, m.keys.Cancel} {
		h := b.Help()
		help = append(help, t.HelpKey.Render(h.Key)+" "+t.HelpDesc.Render(h.Desc))
	}
	parts = append(parts, "", strings.Join(help, "  "))

	return lipgloss.NewStyle().Padding(0, 1).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) renderCard(u model.User, selected bool) string {
	t := m.theme
	width := m.width - 4
	if width < 30 {
		width = 30
	}

	name := t.StatsValue.Render(util.Truncate(u.Name, width-10))
	if model.SameUser(&u, m.snap.CurrentUser) {
		name += " " + t.ListMeta.Render("(you)")
	}
	meta := t.ListMeta.Render(util.Truncate("id "+u.ID, width/2))
	if !u.CreatedAt.IsZero() {
		meta += t.ListMeta.Render("  joined " + humanize.RelTime(u.CreatedAt, m.now(), "ago", "from now"))
	}

	row := lipgloss.JoinHorizontal(lipgloss.Top,
		components.Avatar(u.ID, u.Name), " ",
		lipgloss.JoinVertical(lipgloss.Left, name, meta))

	style := t.ListItem
	if selected {
		style = t.ListItemCursor
	}
	return style.Width(width).Render(row)
}
