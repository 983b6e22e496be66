// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package state

import (
	"strings"

	"github.com/necx/necx-tui/internal/model"
)

// =============================================================================
// SELECTORS
// =============================================================================

// PeersFor returns the users that can be chatted with: everyone except the
// current user, matched by id.
func PeersFor(s State) []model.User {
	out := make([]model.User, 0, len(s.Users))
	for _, u := range s.Users {
		if s.CurrentUser != nil && u.ID == s.CurrentUser.ID {
			continue
		}
		out = append(out, u)
	}
	return out
}

// FilterUsers returns the users whose name contains term, case-insensitively.
// An empty term returns every user.
func FilterUsers(users []model.User, term string) []model.User {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		if term == "" || strings.Contains(strings.ToLower(u.Name), term) {
			out = append(out, u)
		}
	}
	return out
}

// SearchMessages returns the messages whose content contains query,
// case-insensitively, in list order. ok is false when the query is shorter
// than model.SearchMinChars, in which case search is inactive and no
// results are returned.
func SearchMessages(messages []model.Message, query string) (results []model.Message, ok bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if model.CharCount(q) < model.SearchMinChars {
		return nil, false
	}
	results = make([]model.Message, 0)
	for _, m := range messages {
		if strings.Contains(strings.ToLower(m.Content), q) {
			results = append(results, m)
		}
	}
	return results, true
}
