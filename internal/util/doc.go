// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across necx-tui packages.
//
// # Atomic File Writes
//
// AtomicWriteFile replaces a file through a synced temp file and a rename,
// so readers never observe a half-written selection file or config.
//
// # Display Width
//
// Width, Truncate, and PadRight measure terminal columns with go-runewidth,
// which keeps wide characters and emoji aligned in list and table views.
package util
