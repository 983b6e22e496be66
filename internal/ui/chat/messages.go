// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/necx/necx-tui/internal/model"
	"github.com/necx/necx-tui/internal/state"
)

// selectionFetchDelay is how long after a participant changes the
// conversation is re-fetched.
const selectionFetchDelay = 100 * time.Millisecond

// =============================================================================
// OPERATION RESULTS
// =============================================================================

// Store operations run inside commands. Their state changes reach the page
// through the store subscription; these messages only carry the outcome the
// page itself reacts to, such as clearing an input.

// fetchMessagesMsg asks for the conversation to be re-fetched.
type fetchMessagesMsg struct{}

// fetchDoneMsg reports a completed fetch.
type fetchDoneMsg struct {
	Err error
}

// sendDoneMsg reports a completed send.
type sendDoneMsg struct {
	Message *model.Message
	Err     error
}

// editDoneMsg reports a completed edit.
type editDoneMsg struct {
	ID  string
	Err error
}

// deleteDoneMsg reports a completed delete.
type deleteDoneMsg struct {
	ID  string
	Err error
}

// userCreatedMsg reports a completed user creation.
type userCreatedMsg struct {
	User *model.User
	Err  error
}

// searchDebounceMsg fires once typing in the search box has paused.
type searchDebounceMsg struct {
	Seq int
}

// =============================================================================
// COMMAND CREATORS
// =============================================================================

func scheduleFetch() tea.Cmd {
	return tea.Tick(selectionFetchDelay, func(time.Time) tea.Msg {
		return fetchMessagesMsg{}
	})
}

func fetchMessagesCmd(ctx context.Context, store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return fetchDoneMsg{Err: store.FetchMessages(ctx)}
	}
}

func refreshCmd(ctx context.Context, store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return fetchDoneMsg{Err: store.Refresh(ctx)}
	}
}

func sendCmd(ctx context.Context, store *state.Store, content string) tea.Cmd {
	return func() tea.Msg {
		msg, err := store.SendMessage(ctx, content)
		return sendDoneMsg{Message: msg, Err: err}
	}
}

func editCmd(ctx context.Context, store *state.Store, id, content string) tea.Cmd {
	return func() tea.Msg {
		_, err := store.EditMessage(ctx, id, content)
		return editDoneMsg{ID: id, Err: err}
	}
}

func deleteCmd(ctx context.Context, store *state.Store, id string) tea.Cmd {
	return func() tea.Msg {
		return deleteDoneMsg{ID: id, Err: store.RemoveMessage(ctx, id)}
	}
}

func createUserCmd(ctx context.Context, store *state.Store, name string) tea.Cmd {
	return func() tea.Msg {
		u, err := store.CreateUser(ctx, name)
		return userCreatedMsg{User: u, Err: err}
	}
}

func debounceSearch(seq int) tea.Cmd {
	return tea.Tick(model.SearchDebounce, func(time.Time) tea.Msg {
		return searchDebounceMsg{Seq: seq}
	})
}
