// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists the participant selection across restarts.
//
// Two keys are kept in a small key-value store: who I am
// (KeyCurrentUser) and who I am talking to (KeySelectedUser). Each value is
// the JSON encoding of a model.User.
//
// # Key Types
//
//   - KV: the key-value backend (FileKV, SQLiteKV, MemoryKV)
//   - Bridge: restores the selection into a state.Store at startup and
//     writes it back whenever it changes
//
// # Usage
//
//	kv, err := storage.Open(storage.BackendFile, dir)
//	bridge := storage.NewBridge(kv, &logger)
//	bridge.Rehydrate(store)
//	detach := bridge.Attach(store)
//	defer detach()
//
// # Storage Location
//
// The file backend writes one JSON file per key under ~/.necx/state/.
// The sqlite backend keeps a kv table in ~/.necx/state/necx.db.
package storage
