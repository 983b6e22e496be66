// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the shared visual pieces of the NECX TUI:
// the header bar, toasts, avatars, confirmation prompts, and markdown
// rendering for message bodies.
package components
