// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/necx/necx-tui/internal/model"
	"github.com/necx/necx-tui/internal/state"
)

// Storage keys for the persisted selection.
const (
	KeySelectedUser = "necx_selected_user"
	KeyCurrentUser  = "necx_current_user"
)

// =============================================================================
// STORE INTERFACES
// =============================================================================

// Selector receives a restored selection.
type Selector interface {
	SetCurrentUser(user *model.User)
	SelectUser(user *model.User)
}

// Observable delivers state snapshots.
type Observable interface {
	Snapshot() state.State
	Subscribe(fn state.Listener) (unsubscribe func())
}

// =============================================================================
// BRIDGE
// =============================================================================

// Bridge mirrors the current and selected user between a store and a KV.
type Bridge struct {
	kv     KV
	logger zerolog.Logger

	mu          sync.Mutex
	lastVersion uint64
	current     *model.User
	selected    *model.User
}

// NewBridge creates a bridge over kv. A nil logger discards logs.
func NewBridge(kv KV, logger *zerolog.Logger) *Bridge {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "storage").Logger()
	}
	return &Bridge{kv: kv, logger: l}
}

// Rehydrate restores the persisted selection into the store.
//
// Absent keys leave the field unset. A value that fails to decode is
// logged, deleted, and treated as absent. Rehydrate never fails.
func (b *Bridge) Rehydrate(store Selector) {
	current := b.load(KeyCurrentUser)
	selected := b.load(KeySelectedUser)

	b.mu.Lock()
	b.current, b.selected = current.Clone(), selected.Clone()
	b.mu.Unlock()

	if current != nil {
		store.SetCurrentUser(current)
	}
	if selected != nil {
		store.SelectUser(selected)
	}
}

// Attach writes the selection back whenever it changes and returns a
// function that stops watching.
//
// Snapshots older than the last one handled are ignored. Write failures
// are logged and otherwise dropped.
func (b *Bridge) Attach(store Observable) (detach func()) {
	detach = store.Subscribe(b.persist)
	// Catch anything dispatched between Rehydrate and Subscribe.
	b.persist(store.Snapshot())
	return detach
}

// persist writes the fields that differ from what was last stored.
func (b *Bridge) persist(s state.State) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.Version <= b.lastVersion {
		return
	}
	b.lastVersion = s.Version

	if !model.SameUser(b.current, s.CurrentUser) {
		if b.write(KeyCurrentUser, s.CurrentUser) {
			b.current = s.CurrentUser.Clone()
		}
	}
	if !model.SameUser(b.selected, s.SelectedUser) {
		if b.write(KeySelectedUser, s.SelectedUser) {
			b.selected = s.SelectedUser.Clone()
		}
	}
}

// write stores user under key, or deletes key when user is nil.
// It reports whether the backend accepted the change.
func (b *Bridge) write(key string, user *model.User) bool {
	var err error
	if user == nil {
		err = b.kv.Delete(key)
	} else {
		err = SetJSON(b.kv, key, user)
	}
	if err != nil {
		b.logger.Warn().Err(err).Str("key", key).Msg("failed to persist selection")
		return false
	}
	b.logger.Debug().Str("key", key).Bool("cleared", user == nil).Msg("selection persisted")
	return true
}

// load reads one persisted user, discarding corrupt values.
func (b *Bridge) load(key string) *model.User {
	var user *model.User
	err := GetJSON(b.kv, key, &user)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		return nil
	case errors.Is(err, ErrCorrupt):
		b.discard(key, err)
		return nil
	default:
		b.logger.Warn().Err(err).Str("key", key).Msg("failed to read persisted selection")
		return nil
	}

	if user != nil && (user.ID == "" || user.Name == "") {
		b.discard(key, errors.New("user record is missing _id or name"))
		return nil
	}
	return user
}

func (b *Bridge) discard(key string, cause error) {
	b.logger.Warn().Err(cause).Str("key", key).Msg("discarding corrupt persisted selection")
	if err := b.kv.Delete(key); err != nil {
		b.logger.Warn().Err(err).Str("key", key).Msg("failed to delete corrupt selection")
	}
}
