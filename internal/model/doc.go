// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for users, messages, and the
// participant pair that defines an active conversation.
//
// # Key Types
//
//   - User: A directory entry (id, name, creation time)
//   - Message: A direct message between two users, identified by name
//   - Conversation: The (self, peer) participant pair
//
// # Validation
//
// Names and message bodies are trimmed and NFC-normalized before their
// length is checked, so the limits count characters as the user sees them:
//
//	name, err := model.ValidateUserName("  Alice ")
//	// name == "Alice", err == nil
//
// Ownership of a message (IsOwnedBy) is a display heuristic only. It decides
// whether edit and delete controls are offered; the backend remains the
// authority on who may change a message.
package model
