// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app provides the root Bubble Tea model of the TUI. It owns the
// header and toasts, switches between the chat and users pages, and feeds
// them store snapshots.
package app

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/necx/necx-tui/internal/config"
	"github.com/necx/necx-tui/internal/state"
	"github.com/necx/necx-tui/internal/ui/chat"
	"github.com/necx/necx-tui/internal/ui/components"
	"github.com/necx/necx-tui/internal/ui/styles"
	"github.com/necx/necx-tui/internal/ui/users"
)

// =============================================================================
// MESSAGES
// =============================================================================

// StateChangedMsg carries the newest store snapshot.
type StateChangedMsg struct {
	State state.State
}

// ConfigReloadedMsg carries a config reload from the file watcher.
type ConfigReloadedMsg struct {
	Reload config.Reload
}

// autoRefreshMsg fires on the auto-refresh interval. Gen drops ticks from
// a schedule that a config reload replaced.
type autoRefreshMsg struct {
	Gen int
}

type refreshDoneMsg struct {
	Err error
}

// =============================================================================
// STATE FEED
// =============================================================================

// feed turns store notifications into Bubble Tea messages. It holds at most
// one pending snapshot; a newer one replaces it, so a slow UI only ever sees
// the latest state.
type feed struct {
	ch   chan state.State
	done chan struct{}
	once sync.Once
}

func newFeed() *feed {
	return &feed{ch: make(chan state.State, 1), done: make(chan struct{})}
}

// stop releases any pending wait. Safe to call more than once.
func (f *feed) stop() {
	f.once.Do(func() { close(f.done) })
}

// push never blocks. Listeners run on the goroutine that dispatched.
func (f *feed) push(s state.State) {
	for {
		select {
		case f.ch <- s:
			return
		default:
		}
		select {
		case old := <-f.ch:
			if old.Version > s.Version {
				s = old
			}
		default:
		}
	}
}

// wait returns a command that delivers the next snapshot, or nil once the
// feed is stopped.
func (f *feed) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-f.ch:
			return StateChangedMsg{State: s}
		case <-f.done:
			return nil
		}
	}
}

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// Options configures the application model.
type Options struct {
	Store  *state.Store
	Toasts *components.ToastManager
	Config *config.Config
	// Reloads, when set, delivers config file changes.
	Reloads <-chan config.Reload
	Logger  *zerolog.Logger
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx    context.Context
	store  *state.Store
	toasts *components.ToastManager
	cfg    *config.Config
	logger zerolog.Logger

	theme    *styles.Theme
	header   *components.Header
	markdown *components.Markdown

	chat  chat.Model
	users users.Model

	feed        *feed
	unsubscribe func()
	reloads     <-chan config.Reload
	refreshGen  int

	width  int
	height int
}

// New creates the application model and subscribes it to the store. Call
// Close when the program exits.
func New(ctx context.Context, opts Options) *Model {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	toasts := opts.Toasts
	if toasts == nil {
		toasts = components.NewToastManager()
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "tui").Logger()
	}

	styles.ApplyMode(cfg.UI.Theme)
	theme := styles.NewTheme()
	md := components.NewMarkdown(cfg.UI.Markdown)

	header := components.NewHeader(theme)
	header.Status = cfg.API.BaseURL

	m := &Model{
		ctx:      ctx,
		store:    opts.Store,
		toasts:   toasts,
		cfg:      cfg,
		logger:   logger,
		theme:    theme,
		header:   header,
		markdown: md,
		chat:     chat.New(ctx, opts.Store, theme, md),
		users:    users.New(ctx, opts.Store, theme),
		feed:     newFeed(),
		reloads:  opts.Reloads,
	}
	m.unsubscribe = opts.Store.Subscribe(m.feed.push)
	return m
}

// Close detaches the model from the store.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.feed.stop()
}

// Init loads the directory and the persisted conversation and starts the
// background tickers.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.feed.wait(),
		components.ToastTickCmd(),
		m.users.Enter(),
		m.chat.Init(),
		m.waitForReload(),
	}
	cmds = append(cmds, m.scheduleRefresh())
	return tea.Batch(cmds...)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.header.SetWidth(msg.Width)
		h := m.pageHeight()
		m.chat = m.chat.SetSize(msg.Width, h)
		m.users = m.users.SetSize(msg.Width, h)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case StateChangedMsg:
		return m.handleStateChanged(msg)

	case components.ToastTickMsg:
		m.toasts.Tick()
		return m, components.ToastTickCmd()

	case autoRefreshMsg:
		if msg.Gen != m.refreshGen {
			return m, nil
		}
		store, ctx := m.store, m.ctx
		return m, tea.Batch(
			func() tea.Msg { return refreshDoneMsg{Err: store.Refresh(ctx)} },
			m.scheduleRefresh(),
		)

	case refreshDoneMsg:
		if msg.Err != nil {
			m.logger.Debug().Err(msg.Err).Msg("auto refresh failed")
		}
		return m, nil

	case ConfigReloadedMsg:
		return m.handleConfigReload(msg.Reload)
	}

	return m.forward(msg)
}

// forward hands a message to the active page.
func (m *Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.header.Active == components.TabUsers {
		m.users, cmd = m.users.Update(msg)
	} else {
		m.chat, cmd = m.chat.Update(msg)
	}
	return m, cmd
}

// handleKeyPress processes global keys and forwards the rest.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+x":
		m.toasts.DismissNewest()
		return m, nil
	case "tab":
		return m.switchTab(m.header.Active.Next())
	case "f1":
		return m.switchTab(components.TabChat)
	case "f2":
		return m.switchTab(components.TabUsers)
	case "q":
		if !m.typing() {
			return m, tea.Quit
		}
	}
	return m.forward(msg)
}

func (m *Model) switchTab(t components.Tab) (tea.Model, tea.Cmd) {
	if t == m.header.Active {
		return m, nil
	}
	m.header.Active = t
	if t == components.TabUsers {
		return m, m.users.Enter()
	}
	return m, nil
}

func (m *Model) typing() bool {
	if m.header.Active == components.TabUsers {
		return m.users.Typing()
	}
	return m.chat.Typing()
}

// handleStateChanged fans a snapshot out to both pages and waits for the next.
func (m *Model) handleStateChanged(msg StateChangedMsg) (tea.Model, tea.Cmd) {
	var chatCmd, usersCmd tea.Cmd
	m.chat, chatCmd = m.chat.SetState(msg.State)
	m.users, usersCmd = m.users.SetState(msg.State)
	return m, tea.Batch(m.feed.wait(), chatCmd, usersCmd)
}

// =============================================================================
// CONFIG AND AUTO REFRESH
// =============================================================================

func (m *Model) scheduleRefresh() tea.Cmd {
	if !m.cfg.UI.AutoRefresh {
		return nil
	}
	gen := m.refreshGen
	return tea.Tick(m.cfg.RefreshInterval(), func(time.Time) tea.Msg {
		return autoRefreshMsg{Gen: gen}
	})
}

func (m *Model) waitForReload() tea.Cmd {
	if m.reloads == nil {
		return nil
	}
	ch := m.reloads
	return func() tea.Msg {
		r, ok := <-ch
		if !ok {
			return nil
		}
		return ConfigReloadedMsg{Reload: r}
	}
}

// handleConfigReload applies the settings that can change at runtime:
// theme, markdown, and auto refresh. The backend and storage stay as they
// were until restart.
func (m *Model) handleConfigReload(r config.Reload) (tea.Model, tea.Cmd) {
	next := m.waitForReload()
	if r.Err != nil {
		m.logger.Warn().Err(r.Err).Str("path", r.Path).Msg("config reload failed")
		m.toasts.Warning("Config not reloaded", r.Err.Error())
		return m, next
	}

	m.cfg = r.Config
	styles.ApplyMode(m.cfg.UI.Theme)
	m.markdown.Enabled = m.cfg.UI.Markdown
	m.refreshGen++
	m.logger.Info().Str("path", r.Path).Msg("config reloaded")
	m.toasts.Status("Config reloaded", r.Path)

	return m, tea.Batch(next, m.scheduleRefresh())
}

// =============================================================================
// VIEW
// =============================================================================

func (m *Model) pageHeight() int {
	h := m.height - lipgloss.Height(m.header.View())
	if h < 5 {
		h = 5
	}
	return h
}

// View renders the header, the active page, and any toasts.
func (m *Model) View() string {
	page := m.chat.View()
	if m.header.Active == components.TabUsers {
		page = m.users.View()
	}
	page = components.OverlayTopRight(page, components.RenderToastStack(m.toasts.Toasts(), m.width), m.width)
	return lipgloss.JoinVertical(lipgloss.Left, m.header.View(), page)
}
