// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat page of the TUI.
//
// The page shows a sidebar with the "You are:" and "Chat with:" pickers and
// a conversation pane with the message list, search, and composer. All
// data comes from a state.Store snapshot installed with SetState; every
// backend call runs as a store operation inside a tea.Cmd.
package chat
