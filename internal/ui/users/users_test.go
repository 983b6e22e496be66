// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package users

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/necx/necx-tui/internal/api"
	"github.com/necx/necx-tui/internal/api/apitest"
	"github.com/necx/necx-tui/internal/state"
	"github.com/necx/necx-tui/internal/ui/styles"
)

func newPage(t *testing.T) (Model, *state.Store, *apitest.Server) {
	t.Helper()
	backend := apitest.New(t)
	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: backend.URL()})
	store := state.NewStore(client, nil, nil)
	m := New(context.Background(), store, styles.NewTheme()).SetSize(100, 40)
	return m, store, backend
}

func load(t *testing.T, m Model, store *state.Store) Model {
	t.Helper()
	msg := m.Enter()()
	if done := msg.(fetchDoneMsg); done.Err != nil {
		t.Fatalf("load failed: %v", done.Err)
	}
	m, _ = m.SetState(store.Snapshot())
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestUsers_LoadsOnEnter(t *testing.T) {
	m, store, backend := newPage(t)
	backend.AddUser("Alice")
	backend.AddUser("Bob")

	m = load(t, m, store)
	view := m.View()
	for _, want := range []string{"Alice", "Bob", "Total Users: 2", "Shown: 2", "joined"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestUsers_SearchFilters(t *testing.T) {
	m, store, backend := newPage(t)
	backend.AddUser("Alice")
	backend.AddUser("Bob")
	backend.AddUser("alicia")
	m = load(t, m, store)

	m, _ = m.Update(runes("/"))
	if !m.Typing() {
		t.Fatal("/ should focus search")
	}
	m, _ = m.Update(runes("ALI"))
	if got := len(m.Visible()); got != 2 {
		t.Errorf("visible = %d, want 2", got)
	}
	if !strings.Contains(m.View(), "Shown: 2") {
		t.Error("shown count should follow the filter")
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.Typing() || len(m.Visible()) != 3 {
		t.Error("esc should clear the filter and leave search")
	}
}

func TestUsers_ErrorAndRetry(t *testing.T) {
	m, store, backend := newPage(t)
	backend.AddUser("Alice")
	backend.Fail(http.MethodGet, "/users", apitest.Fault{Status: http.StatusInternalServerError})

	if done := m.Enter()().(fetchDoneMsg); done.Err == nil {
		t.Fatal("expected a load error")
	}
	m, _ = m.SetState(store.Snapshot())
	if view := m.View(); !strings.Contains(view, "status: 500") || !strings.Contains(view, "retry") {
		t.Fatalf("error state missing:\n%s", view)
	}

	backend.Recover(http.MethodGet, "/users")
	m, cmd := m.Update(runes("r"))
	if cmd == nil {
		t.Fatal("r should reload")
	}
	cmd()
	m, _ = m.SetState(store.Snapshot())
	if !strings.Contains(m.View(), "Alice") {
		t.Error("retry should show the directory")
	}
}

func TestUsers_EmptyDirectory(t *testing.T) {
	m, store, _ := newPage(t)
	m = load(t, m, store)
	if !strings.Contains(m.View(), "No users yet") {
		t.Error("empty directory hint missing")
	}
}

func TestUsers_CursorStaysInRange(t *testing.T) {
	m, store, backend := newPage(t)
	backend.AddUser("Alice")
	backend.AddUser("Bob")
	m = load(t, m, store)

	for i := 0; i < 5; i++ {
		m, _ = m.Update(runes("j"))
	}
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
	m, _ = m.Update(runes("k"))
	m, _ = m.Update(runes("k"))
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
}

func TestUsers_JoinedUsesClock(t *testing.T) {
	m, store, backend := newPage(t)
	u := backend.AddUser("Alice")
	m = load(t, m, store)
	m.now = func() time.Time { return u.CreatedAt.Add(3 * time.Hour) }

	if !strings.Contains(m.View(), "joined 3 hours ago") {
		t.Errorf("joined time missing:\n%s", m.View())
	}
}
