// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for users, messages, and conversations.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// LIMITS
// =============================================================================

const (
	// MinNameLength is the shortest accepted user name, in characters.
	MinNameLength = 1
	// MaxNameLength is the longest accepted user name, in characters.
	MaxNameLength = 50

	// MinMessageLength is the shortest accepted message body, in characters.
	MinMessageLength = 1
	// MaxMessageLength is the longest accepted message body, in characters.
	MaxMessageLength = 1000

	// SearchMinChars is the shortest query that triggers a message search.
	SearchMinChars = 2
)

// SearchDebounce is how long typing must pause before a search runs.
const SearchDebounce = 500 * time.Millisecond

// AutoRefreshInterval is the polling period used when auto refresh is enabled.
const AutoRefreshInterval = 5 * time.Second

// =============================================================================
// VALIDATION
// =============================================================================

var (
	// ErrInvalidName is wrapped by every user name validation failure.
	ErrInvalidName = errors.New("invalid user name")
	// ErrInvalidContent is wrapped by every message body validation failure.
	ErrInvalidContent = errors.New("invalid message content")
)

// Normalize trims surrounding whitespace and applies Unicode NFC so that
// composed and decomposed forms count the same.
func Normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ValidateUserName returns the normalized name, or an error wrapping
// ErrInvalidName when it is empty or longer than MaxNameLength characters.
func ValidateUserName(name string) (string, error) {
	n := Normalize(name)
	length := utf8.RuneCountInString(n)
	if length < MinNameLength {
		return "", fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if length > MaxNameLength {
		return "", fmt.Errorf("%w: name must be at most %d characters (got %d)", ErrInvalidName, MaxNameLength, length)
	}
	return n, nil
}

// ValidateMessageContent returns the normalized body, or an error wrapping
// ErrInvalidContent when it is empty or longer than MaxMessageLength characters.
func ValidateMessageContent(content string) (string, error) {
	c := Normalize(content)
	length := utf8.RuneCountInString(c)
	if length < MinMessageLength {
		return "", fmt.Errorf("%w: message content cannot be empty", ErrInvalidContent)
	}
	if length > MaxMessageLength {
		return "", fmt.Errorf("%w: message must be at most %d characters (got %d)", ErrInvalidContent, MaxMessageLength, length)
	}
	return c, nil
}

// CharCount returns the number of characters in s after normalization.
// Views use it for the composer counter.
func CharCount(s string) int {
	return utf8.RuneCountInString(norm.NFC.String(s))
}
