// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a two-party conversation to a file or stream.
//
// # Supported Formats
//
//   - JSON: participants and messages as the backend returns them
//   - Markdown: frontmatter plus one section per message
//   - HTML: a standalone page with embedded CSS
//
// # Usage
//
//	t, err := export.NewTranscript(store.Snapshot(), time.Now())
//	exporter, err := export.ForFormat("markdown", export.DefaultOptions())
//	path, err := export.ToFile(t, exporter, ".")
package export
