// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/necx/necx-tui/internal/util"
)

// =============================================================================
// FILE BACKEND
// =============================================================================

// FileKV stores each key as <BaseDir>/<key>.json.
type FileKV struct {
	// BaseDir is the directory holding one file per key.
	// Default: ~/.necx/state/
	BaseDir string

	mu sync.Mutex
}

// NewFileKV creates a file backend in dir, creating the directory if needed.
func NewFileKV(dir string) (*FileKV, error) {
	if dir == "" {
		return nil, errors.New("storage directory is required")
	}
	if err := os.MkdirAll(dir, util.DirPerm); err != nil {
		return nil, err
	}
	return &FileKV{BaseDir: dir}, nil
}

// Get reads the file for key.
func (f *FileKV) Get(key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.filePath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Set atomically replaces the file for key.
func (f *FileKV) Set(key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return util.AtomicWriteFile(f.filePath(key), value, 0o600)
}

// Delete removes the file for key.
func (f *FileKV) Delete(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.filePath(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Close is a no-op.
func (f *FileKV) Close() error { return nil }

func (f *FileKV) filePath(key string) string {
	return filepath.Join(f.BaseDir, key+".json")
}
