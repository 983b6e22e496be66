// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the messaging backend's REST API.
package api

import "encoding/json"

// =============================================================================
// ENVELOPE
// =============================================================================

// Envelope is the wrapper around every backend response.
// Success is a pointer so that a missing flag can be told apart from false.
type Envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// failed reports whether the backend explicitly flagged the call as failed.
func (e *Envelope) failed() bool {
	return e.Success != nil && !*e.Success
}

// hasData reports whether the envelope carried a non-null payload.
func (e *Envelope) hasData() bool {
	return len(e.Data) != 0 && string(e.Data) != "null"
}

// reason returns the backend's explanation for a failed call.
func (e *Envelope) reason() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Error != "":
		return e.Error
	default:
		return "request was not successful"
	}
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// UserInput is the body for creating or updating a user.
type UserInput struct {
	Name string `json:"name"`
}

// MessageInput is the body for creating a message.
type MessageInput struct {
	Content   string `json:"content"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
}

// MessageUpdate is the body for editing a message.
type MessageUpdate struct {
	Content string `json:"content"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// HealthStatus is the result of the liveness probe.
type HealthStatus struct {
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}
