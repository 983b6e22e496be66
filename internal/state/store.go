// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package state

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/necx/necx-tui/internal/api"
	"github.com/necx/necx-tui/internal/model"
)

// =============================================================================
// BACKEND INTERFACE
// =============================================================================

// API is the subset of the HTTP client the store calls.
type API interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateUser(ctx context.Context, input api.UserInput) (*model.User, error)
	MessagesBetween(ctx context.Context, user1, user2 string) ([]model.Message, error)
	CreateMessage(ctx context.Context, input api.MessageInput) (*model.Message, error)
	UpdateMessage(ctx context.Context, id string, update api.MessageUpdate) (*model.Message, error)
	DeleteMessage(ctx context.Context, id string) error
}

// =============================================================================
// STORE
// =============================================================================

// Listener receives every new snapshot.
type Listener func(State)

type subscription struct {
	id int
	fn Listener
}

// Store owns the conversation state and the actions that change it.
//
// All methods are safe for concurrent use. Listeners run synchronously on
// the goroutine that dispatched the change, after the store lock is
// released, so a listener may call back into the store.
type Store struct {
	api      API
	notifier Notifier
	logger   zerolog.Logger

	mu     sync.Mutex
	state  State
	subs   []subscription
	nextID int
}

// NewStore creates a store with the initial empty state.
// A nil notifier discards notifications; a nil logger discards logs.
func NewStore(client API, notifier Notifier, logger *zerolog.Logger) *Store {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "state").Logger()
	}
	return &Store{
		api:      client,
		notifier: notifier,
		logger:   l,
		state:    Initial(),
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers a listener and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Dispatch applies a batch of actions as one atomic transition.
func (s *Store) Dispatch(actions ...Action) State {
	return s.dispatch(actions...)
}

// dispatch swaps in the reduced snapshot and notifies listeners outside the lock.
func (s *Store) dispatch(actions ...Action) State {
	s.mu.Lock()
	next := s.state
	for _, a := range actions {
		next = Reduce(next, a)
	}
	next.Version = s.state.Version + 1
	s.state = next
	subs := make([]Listener, len(s.subs))
	for i, sub := range s.subs {
		subs[i] = sub.fn
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next
}
