// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package state

import "github.com/necx/necx-tui/internal/model"

// =============================================================================
// RESOURCES
// =============================================================================

// Resource names a unit of loading/error tracking.
type Resource int

const (
	ResourceUsers Resource = iota
	ResourceMessages
	ResourceSendMessage
)

// String returns the resource name used in logs.
func (r Resource) String() string {
	switch r {
	case ResourceUsers:
		return "users"
	case ResourceMessages:
		return "messages"
	case ResourceSendMessage:
		return "sendMessage"
	default:
		return "unknown"
	}
}

// ResourceStatus is the loading flag and last error of one resource.
// An empty Error means no error.
type ResourceStatus struct {
	Loading bool
	Error   string
}

// Status groups the per-resource status.
type Status struct {
	Users       ResourceStatus
	Messages    ResourceStatus
	SendMessage ResourceStatus
}

// Get returns the status of one resource.
func (s Status) Get(r Resource) ResourceStatus {
	switch r {
	case ResourceUsers:
		return s.Users
	case ResourceMessages:
		return s.Messages
	default:
		return s.SendMessage
	}
}

// with returns a copy of s with one resource replaced.
func (s Status) with(r Resource, rs ResourceStatus) Status {
	switch r {
	case ResourceUsers:
		s.Users = rs
	case ResourceMessages:
		s.Messages = rs
	default:
		s.SendMessage = rs
	}
	return s
}

// =============================================================================
// STATE SNAPSHOT
// =============================================================================

// State is one immutable snapshot of the store.
//
// Slices are shared between snapshots and must be treated as read-only.
// Every transition replaces whole fields rather than editing them.
type State struct {
	Users    []model.User
	Messages []model.Message

	// CurrentUser is who I am; SelectedUser is who I talk to.
	CurrentUser  *model.User
	SelectedUser *model.User

	Status Status

	// Version increases by one with every dispatched batch.
	Version uint64
}

// Initial returns the empty starting state.
func Initial() State {
	return State{
		Users:    []model.User{},
		Messages: []model.Message{},
	}
}

// Conversation returns the active participant pair.
func (s State) Conversation() model.Conversation {
	return model.Conversation{Self: s.CurrentUser, Peer: s.SelectedUser}
}
