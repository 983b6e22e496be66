// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the messaging backend's REST API.
package api

import (
	"errors"
	"strconv"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown    ErrorType = iota
	ErrTypeRequest              // Request could not be built or encoded
	ErrTypeConnection           // Transport failure: refused, reset, canceled, timed out
	ErrTypeStatus               // Response status outside 2xx
	ErrTypeDecode               // Body is not the expected JSON
	ErrTypeEnvelope             // 2xx response with success=false
)

// String returns a short name for the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeRequest:
		return "request"
	case ErrTypeConnection:
		return "connection"
	case ErrTypeStatus:
		return "status"
	case ErrTypeDecode:
		return "decode"
	case ErrTypeEnvelope:
		return "envelope"
	default:
		return "unknown"
	}
}

// ClientError represents an error from the API client.
// For ErrTypeStatus the StatusCode is set; the response body is never included.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Cause      error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// newStatusError builds the uniform error for a non-2xx response.
func newStatusError(code int) *ClientError {
	return &ClientError{
		Type:       ErrTypeStatus,
		Message:    "HTTP error! status: " + strconv.Itoa(code),
		StatusCode: code,
	}
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.StatusCode
	}
	return 0
}

// IsStatus reports whether err is a status error with the given code.
func IsStatus(err error, code int) bool {
	return StatusCode(err) == code
}

// IsType reports whether err is a *ClientError of the given type.
func IsType(err error, t ErrorType) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Type == t
}
