// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/necx/necx-tui/internal/model"
	"github.com/necx/necx-tui/internal/state"
)

var (
	alice = model.User{ID: "a1", Name: "Alice", CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	bob   = model.User{ID: "b2", Name: "Bob", CreatedAt: time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)}
)

func newStore() *state.Store {
	return state.NewStore(nil, nil, nil)
}

func readUser(t *testing.T, kv KV, key string) *model.User {
	t.Helper()
	var u *model.User
	err := GetJSON(kv, key, &u)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		t.Fatalf("GetJSON(%s) failed: %v", key, err)
	}
	return u
}

func TestBridge_SelectionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	if err != nil {
		t.Fatal(err)
	}

	first := newStore()
	bridge := NewBridge(kv, nil)
	bridge.Rehydrate(first)
	detach := bridge.Attach(first)

	first.SetCurrentUser(&alice)
	first.SelectUser(&bob)
	detach()

	// Simulated restart: fresh store and bridge over the same directory.
	kv2, _ := NewFileKV(dir)
	second := newStore()
	NewBridge(kv2, nil).Rehydrate(second)

	snap := second.Snapshot()
	if !model.SameUser(snap.CurrentUser, &alice) {
		t.Errorf("current user = %+v, want %+v", snap.CurrentUser, alice)
	}
	if !model.SameUser(snap.SelectedUser, &bob) {
		t.Errorf("selected user = %+v, want %+v", snap.SelectedUser, bob)
	}
}

func TestBridge_ClearingSelectionDeletesKey(t *testing.T) {
	kv := NewMemoryKV()
	store := newStore()
	bridge := NewBridge(kv, nil)
	defer bridge.Attach(store)()

	store.SelectUser(&bob)
	if readUser(t, kv, KeySelectedUser) == nil {
		t.Fatal("selection was not persisted")
	}

	store.SelectUser(nil)
	if _, ok, _ := kv.Get(KeySelectedUser); ok {
		t.Error("key should be deleted when the selection is cleared")
	}
}

func TestBridge_WritesOnlyOnChange(t *testing.T) {
	kv := &countingKV{KV: NewMemoryKV()}
	store := newStore()
	defer NewBridge(kv, nil).Attach(store)()

	store.SetCurrentUser(&alice)
	store.ClearErrors()
	store.SetCurrentUser(&alice)
	store.Dispatch(state.SetMessages{Messages: []model.Message{{ID: "m"}}})

	if kv.sets != 1 {
		t.Errorf("sets = %d, want 1", kv.sets)
	}
}

func TestBridge_CorruptValuesAreDiscarded(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"malformed json", "{oops"},
		{"wrong type", `"Alice"`},
		{"missing id", `{"name":"Alice"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := NewMemoryKV()
			_ = kv.Set(KeyCurrentUser, []byte(tt.value))
			_ = SetJSON(kv, KeySelectedUser, bob)

			store := newStore()
			NewBridge(kv, nil).Rehydrate(store)

			snap := store.Snapshot()
			if snap.CurrentUser != nil {
				t.Errorf("current user = %+v, want nil", snap.CurrentUser)
			}
			if !model.SameUser(snap.SelectedUser, &bob) {
				t.Errorf("valid key should still be restored, got %+v", snap.SelectedUser)
			}
			if _, ok, _ := kv.Get(KeyCurrentUser); ok {
				t.Error("corrupt key should be deleted")
			}
		})
	}
}

func TestBridge_NullValueIsAbsent(t *testing.T) {
	kv := NewMemoryKV()
	_ = kv.Set(KeySelectedUser, []byte("null"))

	store := newStore()
	NewBridge(kv, nil).Rehydrate(store)
	if store.Snapshot().SelectedUser != nil {
		t.Error("null should rehydrate as no selection")
	}
	if store.Snapshot().Version != 0 {
		t.Error("nothing should be dispatched for absent keys")
	}
}

func TestBridge_IgnoresStaleSnapshots(t *testing.T) {
	kv := NewMemoryKV()
	bridge := NewBridge(kv, nil)

	newer := state.Initial()
	newer.Version = 5
	newer.SelectedUser = &bob
	bridge.persist(newer)

	older := state.Initial()
	older.Version = 4
	older.SelectedUser = &alice
	bridge.persist(older)

	if got := readUser(t, kv, KeySelectedUser); !model.SameUser(got, &bob) {
		t.Errorf("stale snapshot overwrote selection: %+v", got)
	}
}

func TestBridge_WriteFailureIsNotFatal(t *testing.T) {
	kv := &failingKV{KV: NewMemoryKV(), broken: true}
	store := newStore()
	defer NewBridge(kv, nil).Attach(store)()

	store.SetCurrentUser(&alice)
	if store.Snapshot().CurrentUser == nil {
		t.Fatal("store should keep the selection even when persistence fails")
	}

	// Once the backend recovers the pending change is written.
	kv.broken = false
	store.ClearErrors()
	if got := readUser(t, kv, KeyCurrentUser); !model.SameUser(got, &alice) {
		t.Errorf("expected retry after recovery, got %+v", got)
	}
}

func TestBridge_SQLiteBackend(t *testing.T) {
	kv, err := NewSQLiteKV(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatal(err)
	}
	defer kv.Close()

	store := newStore()
	defer NewBridge(kv, nil).Attach(store)()
	store.SetCurrentUser(&alice)

	data, ok, err := kv.Get(KeyCurrentUser)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["_id"] != "a1" || raw["name"] != "Alice" {
		t.Errorf("stored JSON = %s", data)
	}
}

// =============================================================================
// TEST DOUBLES
// =============================================================================

type countingKV struct {
	KV
	sets int
}

func (c *countingKV) Set(key string, value []byte) error {
	c.sets++
	return c.KV.Set(key, value)
}

type failingKV struct {
	KV
	broken bool
}

func (f *failingKV) Set(key string, value []byte) error {
	if f.broken {
		return errors.New("disk full")
	}
	return f.KV.Set(key, value)
}
