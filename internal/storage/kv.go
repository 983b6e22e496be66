// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// =============================================================================
// KEY-VALUE INTERFACE
// =============================================================================

// KV is a durable string-keyed byte store.
type KV interface {
	// Get returns the value for key and whether it exists.
	Get(key string) ([]byte, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// Close releases the backend.
	Close() error
}

// Backend names a KV implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
)

// Backends lists the accepted backend names.
var Backends = []Backend{BackendFile, BackendSQLite, BackendMemory}

// Open creates the named backend rooted at dir. dir is ignored for memory.
func Open(backend Backend, dir string) (KV, error) {
	switch backend {
	case BackendFile, "":
		return NewFileKV(dir)
	case BackendSQLite:
		return NewSQLiteKV(dir)
	case BackendMemory:
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// =============================================================================
// JSON HELPERS
// =============================================================================

// GetJSON decodes the value under key into v.
// It returns ErrNotFound when the key is absent.
func GetJSON(kv KV, key string, v any) error {
	data, ok, err := kv.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &StorageError{Message: "corrupt value", Key: key, Cause: err}
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(kv KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return kv.Set(key, data)
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrNotFound is returned when a key does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &StorageError{Message: "key not found"}

// ErrInvalidKey is returned for keys that are empty or contain characters
// outside [A-Za-z0-9_.-].
var ErrInvalidKey = &StorageError{Message: "invalid key"}

// ErrCorrupt matches any error caused by a stored value that failed to decode.
var ErrCorrupt = &StorageError{Message: "corrupt value"}

// StorageError represents a storage-related error.
// It can be compared using errors.Is, which matches on Message.
type StorageError struct {
	Message string
	Key     string
	Cause   error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	msg := e.Message
	if e.Key != "" {
		msg = fmt.Sprintf("%s: %s", e.Key, msg)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is support for comparing storage errors.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

func checkKey(key string) error {
	if !validKey.MatchString(key) || key == "." || key == ".." {
		return &StorageError{Message: ErrInvalidKey.Message, Key: key}
	}
	return nil
}
