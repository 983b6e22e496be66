// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the necx terminal UI.

All colors use Lip Gloss AdaptiveColor so light and dark terminals both
render legibly.

# Color System (colors.go)

  - Purple: brand accent, focused panes, active tab
  - Cyan: own messages, links, the current identity
  - Emerald: success toasts
  - Amber: warnings, edited markers
  - Rose: errors, destructive prompts

Own messages use the OwnBubble* tokens and sit on the right; messages from
the peer use PeerBubble* on the left.

# Theme (theme.go)

NewTheme detects the terminal profile with termenv and builds every style
once. ApplyMode forces dark or light rendering when the config says so.

# Spinners (spinner.go)

Spinner frame sets are ASCII-only and plug into bubbles/spinner.
*/
package styles
