// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// WatchDebounce coalesces the burst of events editors emit on save.
const WatchDebounce = 200 * time.Millisecond

// Reload carries the outcome of re-reading the config file.
type Reload struct {
	Config *Config
	Path   string
	Err    error
}

// Watch reloads the config file whenever it changes and delivers the result
// on the returned channel. The channel is closed when ctx is done.
//
// The parent directory is watched rather than the file itself, since many
// editors save by renaming a new file over the old one.
func Watch(ctx context.Context, opts LoadOptions) (<-chan Reload, error) {
	path := opts.Path
	if path == "" {
		p, err := ConfigPathTOML()
		if err != nil {
			return nil, err
		}
		path = p
	}
	path = filepath.Clean(path)
	opts.Path = path
	opts.WriteDefault = false

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "config").Logger()
	}

	out := make(chan Reload, 1)
	go func() {
		defer close(out)
		defer watcher.Close()

		timer := time.NewTimer(time.Hour)
		timer.Stop()
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				timer.Reset(WatchDebounce)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn().Err(err).Msg("config watcher error")

			case <-timer.C:
				cfg, _, err := LoadWithOptions(opts)
				if err != nil {
					logger.Warn().Err(err).Str("path", path).Msg("config reload failed")
				} else {
					logger.Info().Str("path", path).Msg("config reloaded")
				}
				select {
				case out <- Reload{Config: cfg, Path: path, Err: err}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
