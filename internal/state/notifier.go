// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package state

import "github.com/rs/zerolog"

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// Notifier shows transient user-facing notifications.
// The terminal UI backs it with toasts; the CLI with log lines.
type Notifier interface {
	Success(title, detail string)
	Error(title, detail string)
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) Success(string, string) {}
func (NopNotifier) Error(string, string)   {}

// LogNotifier writes notifications to a zerolog logger.
type LogNotifier struct {
	Logger *zerolog.Logger
}

// Success logs at info level.
func (n LogNotifier) Success(title, detail string) {
	if n.Logger == nil {
		return
	}
	n.Logger.Info().Str("detail", detail).Msg(title)
}

// Error logs at error level.
func (n LogNotifier) Error(title, detail string) {
	if n.Logger == nil {
		return
	}
	n.Logger.Error().Str("detail", detail).Msg(title)
}
