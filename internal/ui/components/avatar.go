// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"

	"github.com/necx/necx-tui/internal/ui/styles"
)

// Initials returns up to two upper-cased initials for a display name:
// the first letters of the first two words, or the first two letters of a
// single word. Empty names give "?".
func Initials(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return "?"
	}

	var out []rune
	if len(words) == 1 {
		for _, r := range words[0] {
			out = append(out, unicode.ToUpper(r))
			if len(out) == 2 {
				break
			}
		}
		return string(out)
	}
	for _, w := range words[:2] {
		for _, r := range w {
			out = append(out, unicode.ToUpper(r))
			break
		}
	}
	return string(out)
}

// AvatarColor picks a palette color from the key. The same key always gets
// the same color.
func AvatarColor(key string) lipgloss.AdaptiveColor {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return styles.AvatarPalette[h.Sum32()%uint32(len(styles.AvatarPalette))]
}

// Avatar renders a user's initials as a small colored badge. id keys the
// color so renamed users keep theirs; name supplies the initials.
func Avatar(id, name string) string {
	key := id
	if key == "" {
		key = name
	}
	return lipgloss.NewStyle().
		Foreground(styles.TextInverse).
		Background(AvatarColor(key)).
		Bold(true).
		Width(4).
		Align(lipgloss.Center).
		Render(Initials(name))
}
