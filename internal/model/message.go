// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for users, messages, and conversations.
package model

import "time"

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a direct message between two users.
// Sender and Recipient hold user names, not ids.
type Message struct {
	// Identity
	ID string `json:"_id"`

	// Participants
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`

	// Content
	Content  string `json:"content"`
	IsEdited bool   `json:"isEdited"`

	// Timing
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DisplayTime returns the time shown next to the message:
// the timestamp when set, otherwise the creation time.
func (m Message) DisplayTime() time.Time {
	if !m.Timestamp.IsZero() {
		return m.Timestamp
	}
	return m.CreatedAt
}

// IsOwnedBy reports whether the message was sent under the given user's name.
//
// This is a display heuristic used to decide whether edit and delete
// controls are offered. It is not an authorization check.
func (m Message) IsOwnedBy(u *User) bool {
	return u != nil && m.Sender == u.Name
}

// Involves reports whether the message belongs to the conversation between
// the two named users, in either direction.
func (m Message) Involves(a, b string) bool {
	return (m.Sender == a && m.Recipient == b) || (m.Sender == b && m.Recipient == a)
}

// Merge folds an authoritative edit into the message and returns the result.
// Zero-valued fields of edit leave the original value in place. A content
// change always marks the message as edited.
func (m Message) Merge(edit Message) Message {
	merged := m
	if edit.Content != "" {
		merged.Content = edit.Content
	}
	if edit.Sender != "" {
		merged.Sender = edit.Sender
	}
	if edit.Recipient != "" {
		merged.Recipient = edit.Recipient
	}
	if !edit.Timestamp.IsZero() {
		merged.Timestamp = edit.Timestamp
	}
	if !edit.CreatedAt.IsZero() {
		merged.CreatedAt = edit.CreatedAt
	}
	if !edit.UpdatedAt.IsZero() {
		merged.UpdatedAt = edit.UpdatedAt
	}
	merged.IsEdited = m.IsEdited || edit.IsEdited || merged.Content != m.Content
	return merged
}
