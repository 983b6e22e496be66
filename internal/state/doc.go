// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package state holds the conversation state store shared by every view.
//
// A Store owns one immutable State snapshot: the user directory, the
// messages of the active conversation, the two participant selections, and
// a loading/error pair for each tracked resource (users, messages,
// sendMessage). Every change goes through Reduce as a batch of actions that
// is swapped in atomically; subscribers receive each new snapshot.
//
// # Ordering
//
// Fetches are not tagged with a request generation and are never canceled
// when superseded. If two fetches of the same resource overlap, the one that
// resolves last overwrites the other regardless of issue order. Snapshots
// carry a Version so observers can ignore notifications that arrive late.
//
// # Usage
//
//	store := state.NewStore(client, notifier, &logger)
//	unsubscribe := store.Subscribe(func(s state.State) { render(s) })
//	defer unsubscribe()
//
//	store.SetCurrentUser(&alice)
//	store.SelectUser(&bob)            // messages cleared in the same transition
//	_ = store.FetchMessages(ctx)
//	_, err := store.SendMessage(ctx, "hi")
package state
