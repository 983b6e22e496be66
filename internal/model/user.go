// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for users, messages, and conversations.
package model

import (
	"strings"
	"time"
)

// =============================================================================
// USER TYPE
// =============================================================================

// User is a directory entry as returned by the backend.
// Identity is the ID; uniqueness is guaranteed by the backend, not here.
type User struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Equal reports whether two users carry the same identity and fields.
// Timestamps are compared by instant, not by location.
func (u User) Equal(other User) bool {
	return u.ID == other.ID &&
		u.Name == other.Name &&
		u.CreatedAt.Equal(other.CreatedAt)
}

// SameUser reports whether two optional users refer to the same record.
// Two nil users are the same; a nil and a non-nil user are not.
func SameUser(a, b *User) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// Clone returns a heap copy of the user, or nil for nil.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// FindUser returns the user with the given id, or nil.
func FindUser(users []User, id string) *User {
	for i := range users {
		if users[i].ID == id {
			c := users[i]
			return &c
		}
	}
	return nil
}

// FindUserByName returns the first user whose name matches case-insensitively.
func FindUserByName(users []User, name string) *User {
	name = strings.TrimSpace(name)
	for i := range users {
		if strings.EqualFold(users[i].Name, name) {
			c := users[i]
			return &c
		}
	}
	return nil
}
