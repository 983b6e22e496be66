// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package state

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/necx/necx-tui/internal/api"
	"github.com/necx/necx-tui/internal/api/apitest"
	"github.com/necx/necx-tui/internal/model"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type note struct {
	kind   string
	title  string
	detail string
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu    sync.Mutex
	notes []note
}

func (r *recordingNotifier) Success(title, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note{"success", title, detail})
}

func (r *recordingNotifier) Error(title, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note{"error", title, detail})
}

func (r *recordingNotifier) all() []note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]note(nil), r.notes...)
}

func newTestStore(t *testing.T) (*Store, *apitest.Server, *recordingNotifier) {
	t.Helper()
	backend := apitest.New(t)
	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: backend.URL()})
	notes := &recordingNotifier{}
	return NewStore(client, notes, nil), backend, notes
}

func userPtr(u model.User) *model.User { return &u }

// =============================================================================
// FETCH TESTS
// =============================================================================

func TestFetchUsers_ReplacesDirectory(t *testing.T) {
	store, backend, _ := newTestStore(t)
	backend.AddUser("Alice")
	backend.AddUser("Bob")

	require.NoError(t, store.FetchUsers(context.Background()))

	snap := store.Snapshot()
	require.Len(t, snap.Users, 2)
	assert.Equal(t, "Alice", snap.Users[0].Name)
	assert.False(t, snap.Status.Users.Loading)
	assert.Empty(t, snap.Status.Users.Error)
}

func TestFetchUsers_FailureKeepsPreviousList(t *testing.T) {
	store, backend, notes := newTestStore(t)
	backend.AddUser("Alice")
	require.NoError(t, store.FetchUsers(context.Background()))

	backend.Fail(http.MethodGet, "/users", apitest.Fault{Status: http.StatusInternalServerError})
	err := store.FetchUsers(context.Background())
	require.Error(t, err)

	snap := store.Snapshot()
	assert.Len(t, snap.Users, 1)
	assert.Equal(t, "HTTP error! status: 500", snap.Status.Users.Error)
	assert.False(t, snap.Status.Users.Loading)
	assert.Empty(t, notes.all(), "fetch failures are shown inline, not as notifications")
}

func TestFetchUsers_LoadingSettles(t *testing.T) {
	store, backend, _ := newTestStore(t)
	backend.AddUser("Alice")

	var loading []bool
	unsubscribe := store.Subscribe(func(s State) {
		loading = append(loading, s.Status.Users.Loading)
	})
	defer unsubscribe()

	require.NoError(t, store.FetchUsers(context.Background()))
	assert.Equal(t, []bool{true, false}, loading)
}

func TestFetchMessages_WithoutParticipantsMakesNoRequest(t *testing.T) {
	store, backend, _ := newTestStore(t)
	store.Dispatch(SetMessages{[]model.Message{{ID: "stale"}}})

	require.NoError(t, store.FetchMessages(context.Background()))

	snap := store.Snapshot()
	assert.Empty(t, snap.Messages)
	assert.NotNil(t, snap.Messages)
	assert.False(t, snap.Status.Messages.Loading)
	assert.Zero(t, backend.TotalHits())
}

func TestFetchMessages_FailureRecordsError(t *testing.T) {
	store, backend, notes := newTestStore(t)
	alice, bob := backend.AddUser("Alice"), backend.AddUser("Bob")
	store.SetCurrentUser(&alice)
	store.SelectUser(&bob)

	backend.Fail(http.MethodGet, "/messages/between", apitest.Fault{Status: http.StatusServiceUnavailable})
	require.Error(t, store.FetchMessages(context.Background()))

	snap := store.Snapshot()
	assert.Equal(t, "HTTP error! status: 503", snap.Status.Messages.Error)
	assert.False(t, snap.Status.Messages.Loading)
	assert.Empty(t, notes.all())
}

func TestFetchMessages_LastResolvedWins(t *testing.T) {
	store, backend, _ := newTestStore(t)
	alice := backend.AddUser("Alice")
	bob := backend.AddUser("Bob")
	carol := backend.AddUser("Carol")
	backend.AddMessage("Alice", "Bob", "for bob")
	backend.AddMessage("Alice", "Carol", "for carol")

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	backend.SetDelay(func(r apitest.Request) time.Duration {
		if r.Route == "/messages/between" && r.Query["user2"] == "Bob" {
			once.Do(func() { close(started) })
			<-release
		}
		return 0
	})

	store.SetCurrentUser(&alice)
	store.SelectUser(&bob)

	done := make(chan error, 1)
	go func() { done <- store.FetchMessages(context.Background()) }()
	<-started

	store.SelectUser(&carol)
	require.NoError(t, store.FetchMessages(context.Background()))
	require.Len(t, store.Snapshot().Messages, 1)
	assert.Equal(t, "for carol", store.Snapshot().Messages[0].Content)

	close(release)
	require.NoError(t, <-done)

	// The older request resolved last and overwrote the list.
	snap := store.Snapshot()
	assert.Equal(t, "Carol", snap.SelectedUser.Name)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "for bob", snap.Messages[0].Content)
}

// =============================================================================
// SELECTION TESTS
// =============================================================================

func TestSelectUser_ClearsMessagesInSameTransition(t *testing.T) {
	store, _, _ := newTestStore(t)
	bob := model.User{ID: "b", Name: "Bob"}
	store.Dispatch(SetMessages{[]model.Message{{ID: "m1", Content: "old"}}})

	var seen []State
	unsubscribe := store.Subscribe(func(s State) { seen = append(seen, s) })
	defer unsubscribe()

	store.SelectUser(&bob)

	require.Len(t, seen, 1)
	assert.Equal(t, "Bob", seen[0].SelectedUser.Name)
	assert.Empty(t, seen[0].Messages)
}

func TestSetCurrentUser_KeepsMessages(t *testing.T) {
	store, _, _ := newTestStore(t)
	store.Dispatch(SetMessages{[]model.Message{{ID: "m1"}}})

	store.SetCurrentUser(&model.User{ID: "a", Name: "Alice"})

	snap := store.Snapshot()
	assert.Equal(t, "Alice", snap.CurrentUser.Name)
	assert.Len(t, snap.Messages, 1)
}

func TestSelectUser_CopiesInput(t *testing.T) {
	store, _, _ := newTestStore(t)
	bob := model.User{ID: "b", Name: "Bob"}
	store.SelectUser(&bob)

	bob.Name = "Mallory"
	assert.Equal(t, "Bob", store.Snapshot().SelectedUser.Name)
}

// =============================================================================
// SEND TESTS
// =============================================================================

func TestSendMessage_MissingParticipant(t *testing.T) {
	tests := []struct {
		name    string
		current *model.User
		peer    *model.User
	}{
		{"neither", nil, nil},
		{"no peer", &model.User{ID: "a", Name: "Alice"}, nil},
		{"no current user", nil, &model.User{ID: "b", Name: "Bob"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, backend, notes := newTestStore(t)
			store.SetCurrentUser(tt.current)
			store.SelectUser(tt.peer)

			msg, err := store.SendMessage(context.Background(), "hello")
			require.ErrorIs(t, err, ErrMissingParticipant)
			assert.Nil(t, msg)
			assert.Zero(t, backend.TotalHits())

			got := notes.all()
			require.Len(t, got, 1)
			assert.Equal(t, note{"error", "Cannot send message", "Both current user and recipient must be selected"}, got[0])
			assert.Empty(t, store.Snapshot().Messages)
		})
	}
}

func TestSendMessage_RejectsInvalidContent(t *testing.T) {
	store, backend, _ := newTestStore(t)
	store.SetCurrentUser(&model.User{ID: "a", Name: "Alice"})
	store.SelectUser(&model.User{ID: "b", Name: "Bob"})

	for _, content := range []string{"", "   \n\t", strings.Repeat("x", model.MaxMessageLength+1)} {
		_, err := store.SendMessage(context.Background(), content)
		require.ErrorIs(t, err, model.ErrInvalidContent)
	}
	assert.Zero(t, backend.TotalHits())
}

func TestSendMessage_AppendsConfirmedMessage(t *testing.T) {
	store, backend, notes := newTestStore(t)
	alice, bob := backend.AddUser("Alice"), backend.AddUser("Bob")
	store.SetCurrentUser(&alice)
	store.SelectUser(&bob)

	msg, err := store.SendMessage(context.Background(), "  hi  ")
	require.NoError(t, err)
	assert.Equal(t, "hi", msg.Content)

	snap := store.Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, msg.ID, snap.Messages[0].ID)
	assert.Equal(t, "Alice", snap.Messages[0].Sender)
	assert.Equal(t, "Bob", snap.Messages[0].Recipient)
	assert.False(t, snap.Status.SendMessage.Loading)
	assert.Empty(t, notes.all())
}

func TestSendMessage_FailureLeavesListUnchanged(t *testing.T) {
	store, backend, notes := newTestStore(t)
	alice, bob := backend.AddUser("Alice"), backend.AddUser("Bob")
	store.SetCurrentUser(&alice)
	store.SelectUser(&bob)

	backend.Fail(http.MethodPost, "/messages", apitest.Fault{Status: http.StatusInternalServerError})
	_, err := store.SendMessage(context.Background(), "hi")
	require.Error(t, err)

	snap := store.Snapshot()
	assert.Empty(t, snap.Messages)
	assert.Equal(t, "HTTP error! status: 500", snap.Status.SendMessage.Error)
	assert.False(t, snap.Status.SendMessage.Loading)

	got := notes.all()
	require.Len(t, got, 1)
	assert.Equal(t, "Failed to send message", got[0].title)
	assert.Equal(t, "HTTP error! status: 500", got[0].detail)
}

func TestSendMessage_ReplyWithoutRecordIsNotAppended(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	notes := &recordingNotifier{}
	store := NewStore(api.NewClientWithConfig(&api.ClientConfig{BaseURL: server.URL}), notes, nil)
	store.SetCurrentUser(&model.User{ID: "a", Name: "Alice"})
	store.SelectUser(&model.User{ID: "b", Name: "Bob"})

	msg, err := store.SendMessage(context.Background(), "hi")
	require.Error(t, err)
	assert.True(t, api.IsType(err, api.ErrTypeEnvelope))
	assert.Nil(t, msg)

	snap := store.Snapshot()
	assert.Empty(t, snap.Messages)
	assert.NotEmpty(t, snap.Status.SendMessage.Error)
	assert.False(t, snap.Status.SendMessage.Loading)
	require.Len(t, notes.all(), 1)
	assert.Equal(t, "error", notes.all()[0].kind)
}

// =============================================================================
// USER CREATION TESTS
// =============================================================================

func TestCreateUser_RefetchesDirectory(t *testing.T) {
	store, backend, notes := newTestStore(t)
	backend.AddUser("Alice")

	created, err := store.CreateUser(context.Background(), "  Carol ")
	require.NoError(t, err)
	assert.Equal(t, "Carol", created.Name)

	assert.Equal(t, 1, backend.Hits(http.MethodPost, "/users"))
	assert.Equal(t, 1, backend.Hits(http.MethodGet, "/users"))

	snap := store.Snapshot()
	require.Len(t, snap.Users, 2)
	assert.False(t, snap.Status.Users.Loading)

	got := notes.all()
	require.Len(t, got, 1)
	assert.Equal(t, note{"success", `User "Carol" created successfully!`, "The user has been added to your contacts."}, got[0])
}

func TestCreateUser_NameBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"one char", "A", false},
		{"fifty chars", strings.Repeat("a", 50), false},
		{"fifty one chars", strings.Repeat("a", 51), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, backend, _ := newTestStore(t)
			_, err := store.CreateUser(context.Background(), tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, model.ErrInvalidName)
				assert.Zero(t, backend.TotalHits())
				return
			}
			require.NoError(t, err)
			assert.Len(t, backend.Users(), 1)
		})
	}
}

func TestCreateUser_DuplicateFails(t *testing.T) {
	store, backend, notes := newTestStore(t)
	backend.AddUser("Alice")

	_, err := store.CreateUser(context.Background(), "Alice")
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, api.StatusCode(err))

	snap := store.Snapshot()
	assert.Equal(t, "HTTP error! status: 409", snap.Status.Users.Error)
	assert.False(t, snap.Status.Users.Loading)
	assert.Zero(t, backend.Hits(http.MethodGet, "/users"))

	got := notes.all()
	require.Len(t, got, 1)
	assert.Equal(t, "Failed to create user", got[0].title)
}

// =============================================================================
// EDIT AND DELETE TESTS
// =============================================================================

func TestConversationBetweenTwoUsers(t *testing.T) {
	ctx := context.Background()
	store, backend, _ := newTestStore(t)

	_, err := store.CreateUser(ctx, "Alice")
	require.NoError(t, err)
	_, err = store.CreateUser(ctx, "Bob")
	require.NoError(t, err)

	users := store.Snapshot().Users
	alice := userPtr(*model.FindUserByName(users, "Alice"))
	bob := userPtr(*model.FindUserByName(users, "Bob"))

	store.SetCurrentUser(alice)
	store.SelectUser(bob)
	sent, err := store.SendMessage(ctx, "hi")
	require.NoError(t, err)

	// Bob's side of the same conversation.
	store.SetCurrentUser(bob)
	store.SelectUser(alice)
	require.NoError(t, store.FetchMessages(ctx))

	snap := store.Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, sent.ID, snap.Messages[0].ID)
	assert.False(t, snap.Messages[0].IsOwnedBy(snap.CurrentUser))

	// Back to Alice, who edits her message.
	store.SetCurrentUser(alice)
	store.SelectUser(bob)
	require.NoError(t, store.FetchMessages(ctx))

	edited, err := store.EditMessage(ctx, sent.ID, "hi there")
	require.NoError(t, err)
	assert.True(t, edited.IsEdited)

	snap = store.Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "hi there", snap.Messages[0].Content)
	assert.True(t, snap.Messages[0].IsEdited)
	assert.Equal(t, "hi there", backend.Messages()[0].Content)
}

func TestEditMessage_UnchangedContentIsNoop(t *testing.T) {
	store, backend, notes := newTestStore(t)
	store.Dispatch(SetMessages{[]model.Message{{ID: "m1", Content: "same"}}})

	msg, err := store.EditMessage(context.Background(), "m1", "  same ")
	require.NoError(t, err)
	assert.Equal(t, "same", msg.Content)
	assert.Zero(t, backend.TotalHits())
	assert.Empty(t, notes.all())
}

func TestEditMessage_EmptyContent(t *testing.T) {
	store, backend, notes := newTestStore(t)
	store.Dispatch(SetMessages{[]model.Message{{ID: "m1", Content: "text"}}})

	_, err := store.EditMessage(context.Background(), "m1", "   ")
	require.ErrorIs(t, err, model.ErrInvalidContent)
	assert.Zero(t, backend.TotalHits())

	got := notes.all()
	require.Len(t, got, 1)
	assert.Equal(t, "Message content cannot be empty", got[0].title)
}

func TestEditMessage_UnknownID(t *testing.T) {
	store, _, _ := newTestStore(t)
	_, err := store.EditMessage(context.Background(), "missing", "text")
	require.ErrorIs(t, err, ErrMessageNotFound)
}

func TestRemoveMessage(t *testing.T) {
	store, backend, notes := newTestStore(t)
	alice, bob := backend.AddUser("Alice"), backend.AddUser("Bob")
	m := backend.AddMessage("Alice", "Bob", "bye")
	store.SetCurrentUser(&alice)
	store.SelectUser(&bob)
	require.NoError(t, store.FetchMessages(context.Background()))

	require.NoError(t, store.RemoveMessage(context.Background(), m.ID))
	assert.Empty(t, store.Snapshot().Messages)
	assert.Empty(t, backend.Messages())

	got := notes.all()
	require.Len(t, got, 1)
	assert.Equal(t, note{"success", "Message deleted successfully!", ""}, got[0])
}

func TestRemoveMessage_FailureKeepsMessage(t *testing.T) {
	store, backend, notes := newTestStore(t)
	store.Dispatch(SetMessages{[]model.Message{{ID: "m1", Content: "keep"}}})

	err := store.RemoveMessage(context.Background(), "m1")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, api.StatusCode(err))
	assert.Len(t, store.Snapshot().Messages, 1)
	assert.Equal(t, 1, backend.Hits(http.MethodDelete, "/messages/:id"))

	got := notes.all()
	require.Len(t, got, 1)
	assert.Equal(t, "Failed to delete message", got[0].title)
}

// =============================================================================
// STORE MECHANICS TESTS
// =============================================================================

func TestSubscribe_Unsubscribe(t *testing.T) {
	store := NewStore(nil, nil, nil)

	calls := 0
	unsubscribe := store.Subscribe(func(State) { calls++ })
	store.ClearErrors()
	unsubscribe()
	unsubscribe()
	store.ClearErrors()

	assert.Equal(t, 1, calls)
}

func TestDispatch_VersionIncreasesPerBatch(t *testing.T) {
	store := NewStore(nil, nil, nil)
	assert.Zero(t, store.Snapshot().Version)

	s1 := store.Dispatch(SetLoading{ResourceUsers, true}, SetError{ResourceUsers, "x"})
	s2 := store.Dispatch(ClearErrors{})

	assert.Equal(t, uint64(1), s1.Version)
	assert.Equal(t, uint64(2), s2.Version)
	assert.Empty(t, s2.Status.Users.Error)
	assert.True(t, s2.Status.Users.Loading)
}

func TestListenerMayCallBackIntoStore(t *testing.T) {
	store := NewStore(nil, nil, nil)

	var versions []uint64
	store.Subscribe(func(s State) {
		versions = append(versions, store.Snapshot().Version)
	})
	store.ClearErrors()

	assert.Equal(t, []uint64{1}, versions)
}

func TestLocalUpdateAndDelete(t *testing.T) {
	store := NewStore(nil, nil, nil)
	store.Dispatch(SetMessages{[]model.Message{
		{ID: "m1", Content: "one"},
		{ID: "m2", Content: "two"},
	}})

	store.UpdateMessage("m1", model.Message{Content: "uno"})
	store.UpdateMessage("missing", model.Message{Content: "ignored"})
	store.DeleteMessage("m2")

	snap := store.Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "uno", snap.Messages[0].Content)
	assert.True(t, snap.Messages[0].IsEdited)
}
