// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package state

import (
	"slices"

	"github.com/necx/necx-tui/internal/model"
)

// =============================================================================
// ACTIONS
// =============================================================================

// Action is one state transition. Actions are pure: apply never mutates
// the input snapshot or any slice it references.
type Action interface {
	apply(State) State
}

// Reduce applies one action to a snapshot and returns the next snapshot.
// Version is left untouched; the store assigns it per dispatched batch.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	return a.apply(s)
}

// SetLoading sets the loading flag of one resource.
type SetLoading struct {
	Resource Resource
	Loading  bool
}

func (a SetLoading) apply(s State) State {
	rs := s.Status.Get(a.Resource)
	rs.Loading = a.Loading
	s.Status = s.Status.with(a.Resource, rs)
	return s
}

// SetError records (or with an empty string, clears) the error of one resource.
type SetError struct {
	Resource Resource
	Error    string
}

func (a SetError) apply(s State) State {
	rs := s.Status.Get(a.Resource)
	rs.Error = a.Error
	s.Status = s.Status.with(a.Resource, rs)
	return s
}

// SetUsers replaces the user directory wholesale.
type SetUsers struct {
	Users []model.User
}

func (a SetUsers) apply(s State) State {
	s.Users = cloneOrEmpty(a.Users)
	return s
}

// SetMessages replaces the message list wholesale.
type SetMessages struct {
	Messages []model.Message
}

func (a SetMessages) apply(s State) State {
	s.Messages = cloneOrEmpty(a.Messages)
	return s
}

// SetSelectedUser sets (or clears) the peer.
type SetSelectedUser struct {
	User *model.User
}

func (a SetSelectedUser) apply(s State) State {
	s.SelectedUser = a.User.Clone()
	return s
}

// SetCurrentUser sets (or clears) who I am.
type SetCurrentUser struct {
	User *model.User
}

func (a SetCurrentUser) apply(s State) State {
	s.CurrentUser = a.User.Clone()
	return s
}

// AddMessage appends a message at the tail.
type AddMessage struct {
	Message model.Message
}

func (a AddMessage) apply(s State) State {
	// Clip forces append to allocate so earlier snapshots keep their backing array.
	s.Messages = append(slices.Clip(s.Messages), a.Message)
	return s
}

// UpdateMessage folds an edit into the message with the given id.
// Unknown ids leave the list unchanged.
type UpdateMessage struct {
	ID      string
	Message model.Message
}

func (a UpdateMessage) apply(s State) State {
	idx := slices.IndexFunc(s.Messages, func(m model.Message) bool { return m.ID == a.ID })
	if idx < 0 {
		return s
	}
	next := slices.Clone(s.Messages)
	next[idx] = next[idx].Merge(a.Message)
	next[idx].ID = a.ID
	s.Messages = next
	return s
}

// DeleteMessage removes the message with the given id.
type DeleteMessage struct {
	ID string
}

func (a DeleteMessage) apply(s State) State {
	next := make([]model.Message, 0, len(s.Messages))
	for _, m := range s.Messages {
		if m.ID != a.ID {
			next = append(next, m)
		}
	}
	s.Messages = next
	return s
}

// ClearErrors resets every resource error. Loading flags and data are kept.
type ClearErrors struct{}

func (ClearErrors) apply(s State) State {
	s.Status.Users.Error = ""
	s.Status.Messages.Error = ""
	s.Status.SendMessage.Error = ""
	return s
}

// cloneOrEmpty copies a slice so the snapshot never aliases caller memory,
// and turns nil into an empty slice.
func cloneOrEmpty[T any](in []T) []T {
	if len(in) == 0 {
		return []T{}
	}
	return slices.Clone(in)
}
