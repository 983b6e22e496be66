// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for users, messages, and conversations.
package model

// =============================================================================
// CONVERSATION
// =============================================================================

// Conversation is the ordered participant pair: who I am and who I talk to.
// Either side may be unset.
type Conversation struct {
	Self *User
	Peer *User
}

// Valid reports whether both participants are set.
func (c Conversation) Valid() bool {
	return c.Self != nil && c.Peer != nil
}

// Key identifies the conversation for display purposes.
// Swapping the participants yields a different key.
func (c Conversation) Key() string {
	if !c.Valid() {
		return ""
	}
	return c.Self.Name + "->" + c.Peer.Name
}

// Names returns the two participant names in (self, peer) order.
func (c Conversation) Names() (self, peer string) {
	if c.Self != nil {
		self = c.Self.Name
	}
	if c.Peer != nil {
		peer = c.Peer.Name
	}
	return self, peer
}
