// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// OverlayTopRight draws overlay over the top-right corner of base, keeping
// the left part of each covered line. Both may contain ANSI styling.
func OverlayTopRight(base, overlay string, width int) string {
	if overlay == "" {
		return base
	}
	baseLines := strings.Split(base, "\n")
	for i, ol := range strings.Split(overlay, "\n") {
		ol = strings.TrimLeft(ol, " ")
		w := ansi.StringWidth(ol)
		if w == 0 {
			continue
		}
		keep := width - w - 1
		if keep < 0 {
			keep = 0
		}
		if i >= len(baseLines) {
			baseLines = append(baseLines, "")
		}
		left := ansi.Truncate(baseLines[i], keep, "")
		if pad := keep - ansi.StringWidth(left); pad > 0 {
			left += strings.Repeat(" ", pad)
		}
		baseLines[i] = left + ol
	}
	return strings.Join(baseLines, "\n")
}
