// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/necx/necx-tui/internal/api/apitest"
)

// =============================================================================
// REQUEST PIPELINE TESTS
// =============================================================================

func TestClient_SetsJSONHeadersAndRequestID(t *testing.T) {
	var gotContentType, gotRequestID, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get(RequestIDHeader)
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Write([]byte(`{"success":true,"data":{"_id":"u1","name":"Alice"}}`))
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL + "/"})
	user, err := client.CreateUser(context.Background(), UserInput{Name: "Alice"})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
	if gotRequestID == "" {
		t.Error("expected a request id header")
	}
	if gotBody != `{"name":"Alice"}` {
		t.Errorf("body = %s", gotBody)
	}
	if user.ID != "u1" || user.Name != "Alice" {
		t.Errorf("user = %+v", user)
	}
}

func TestClient_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"message":"database exploded"}`))
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	_, err := client.ListUsers(context.Background())
	if err == nil {
		t.Fatal("expected an error for a 500 response")
	}

	if err.Error() != "HTTP error! status: 500" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !IsStatus(err, http.StatusInternalServerError) {
		t.Errorf("StatusCode(err) = %d, want 500", StatusCode(err))
	}
	if strings.Contains(err.Error(), "exploded") {
		t.Error("error must not carry the response body")
	}
	if !IsType(err, ErrTypeStatus) {
		t.Error("expected ErrTypeStatus")
	}
}

func TestClient_EnvelopeFailureOn2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"name taken"}`))
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	_, err := client.CreateUser(context.Background(), UserInput{Name: "Bob"})
	if !IsType(err, ErrTypeEnvelope) {
		t.Fatalf("err = %v, want envelope error", err)
	}
	if err.Error() != "name taken" {
		t.Errorf("Error() = %q, want backend message", err.Error())
	}
	if StatusCode(err) != 0 {
		t.Errorf("envelope errors carry no status, got %d", StatusCode(err))
	}
}

func TestClient_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>oops</html>`))
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	_, err := client.ListMessages(context.Background())
	if !IsType(err, ErrTypeDecode) {
		t.Fatalf("err = %v, want decode error", err)
	}
}

func TestClient_ConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: url})
	_, err := client.ListUsers(context.Background())
	if !IsType(err, ErrTypeConnection) {
		t.Fatalf("err = %v, want connection error", err)
	}
}

func TestClient_NoRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	_, _ = client.ListUsers(context.Background())

	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d calls, want exactly 1", got)
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.ListUsers(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want to wrap context.DeadlineExceeded", err)
	}
}

func TestClient_MissingDataYieldsEmptyList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	users, err := client.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if users == nil || len(users) != 0 {
		t.Errorf("users = %#v, want empty non-nil slice", users)
	}
}

func TestClient_RecordCallsRequireData(t *testing.T) {
	for _, body := range []string{`{"success":true}`, `{"success":true,"data":null}`} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))
		client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
		ctx := context.Background()

		calls := map[string]func() (any, error){
			"GetUser":    func() (any, error) { return client.GetUser(ctx, "u1") },
			"CreateUser": func() (any, error) { return client.CreateUser(ctx, UserInput{Name: "Bob"}) },
			"UpdateUser": func() (any, error) { return client.UpdateUser(ctx, "u1", UserInput{Name: "Bob"}) },
			"GetMessage": func() (any, error) { return client.GetMessage(ctx, "m1") },
			"CreateMessage": func() (any, error) {
				return client.CreateMessage(ctx, MessageInput{Content: "hi", Sender: "Alice", Recipient: "Bob"})
			},
			"UpdateMessage": func() (any, error) { return client.UpdateMessage(ctx, "m1", MessageUpdate{Content: "hi"}) },
		}
		for name, call := range calls {
			_, err := call()
			if !IsType(err, ErrTypeEnvelope) {
				t.Errorf("%s with %s: err = %v, want envelope error", name, body, err)
			}
		}
		if err := client.DeleteMessage(ctx, "m1"); err != nil {
			t.Errorf("DeleteMessage with %s: %v", body, err)
		}
		server.Close()
	}
}

func TestClient_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":[]}`))
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL, RequestsPerSecond: 20})
	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := client.ListUsers(context.Background()); err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}
	}
	// Burst of one: the second and third calls each wait ~50ms.
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("3 calls at 20 rps took %v, expected throttling", elapsed)
	}
}

// =============================================================================
// RESOURCE OPERATION TESTS (against the fake backend)
// =============================================================================

func TestClient_UserLifecycle(t *testing.T) {
	backend := apitest.New(t)
	client := NewClientWithConfig(&ClientConfig{BaseURL: backend.URL()})
	ctx := context.Background()

	created, err := client.CreateUser(ctx, UserInput{Name: "Alice"})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	got, err := client.GetUser(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if !got.Equal(*created) {
		t.Errorf("GetUser = %+v, want %+v", got, created)
	}

	updated, err := client.UpdateUser(ctx, created.ID, UserInput{Name: "Alicia"})
	if err != nil || updated.Name != "Alicia" {
		t.Fatalf("UpdateUser = %+v, %v", updated, err)
	}

	if err := client.DeleteUser(ctx, created.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if _, err := client.GetUser(ctx, created.ID); !IsStatus(err, http.StatusNotFound) {
		t.Errorf("GetUser after delete err = %v, want 404", err)
	}
}

func TestClient_MessageLifecycle(t *testing.T) {
	backend := apitest.New(t)
	client := NewClientWithConfig(&ClientConfig{BaseURL: backend.URL()})
	ctx := context.Background()

	backend.AddMessage("Carol", "Dave", "unrelated")
	msg, err := client.CreateMessage(ctx, MessageInput{Content: "hi", Sender: "Alice", Recipient: "Bob"})
	if err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}

	between, err := client.MessagesBetween(ctx, "Bob", "Alice")
	if err != nil {
		t.Fatalf("MessagesBetween failed: %v", err)
	}
	if len(between) != 1 || between[0].ID != msg.ID {
		t.Errorf("MessagesBetween = %+v", between)
	}

	all, err := client.ListMessages(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListMessages = %d messages, %v", len(all), err)
	}

	edited, err := client.UpdateMessage(ctx, msg.ID, MessageUpdate{Content: "hi!"})
	if err != nil {
		t.Fatalf("UpdateMessage failed: %v", err)
	}
	if edited.Content != "hi!" || !edited.IsEdited {
		t.Errorf("edited = %+v", edited)
	}

	fetched, err := client.GetMessage(ctx, msg.ID)
	if err != nil || fetched.Content != "hi!" {
		t.Fatalf("GetMessage = %+v, %v", fetched, err)
	}

	if err := client.DeleteMessage(ctx, msg.ID); err != nil {
		t.Fatalf("DeleteMessage failed: %v", err)
	}
	if len(backend.Messages()) != 1 {
		t.Errorf("backend still holds %d messages, want 1", len(backend.Messages()))
	}
}

func TestClient_MessagesBetweenEscapesNames(t *testing.T) {
	var rawQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		w.Write([]byte(`{"success":true,"data":[]}`))
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	if _, err := client.MessagesBetween(context.Background(), "Ann & Co", "B=b"); err != nil {
		t.Fatalf("MessagesBetween failed: %v", err)
	}
	if rawQuery != "user1=Ann+%26+Co&user2=B%3Db" {
		t.Errorf("query = %q", rawQuery)
	}
}

func TestClient_Health(t *testing.T) {
	backend := apitest.New(t)
	client := NewClientWithConfig(&ClientConfig{BaseURL: backend.URL()})

	status, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if status.Message == "" {
		t.Error("expected a health message")
	}
	var data map[string]string
	if err := json.Unmarshal(status.Data, &data); err != nil || data["status"] != "ok" {
		t.Errorf("health data = %s", status.Data)
	}
}

func TestClient_FaultInjection(t *testing.T) {
	backend := apitest.New(t)
	client := NewClientWithConfig(&ClientConfig{BaseURL: backend.URL()})

	backend.Fail(http.MethodGet, "/users", apitest.Fault{Status: http.StatusBadGateway})
	if _, err := client.ListUsers(context.Background()); !IsStatus(err, http.StatusBadGateway) {
		t.Errorf("err = %v, want 502", err)
	}

	backend.Fail(http.MethodGet, "/users", apitest.Fault{Unsuccessful: true, Message: "maintenance"})
	if _, err := client.ListUsers(context.Background()); !IsType(err, ErrTypeEnvelope) {
		t.Errorf("err = %v, want envelope error", err)
	}

	backend.Recover(http.MethodGet, "/users")
	if _, err := client.ListUsers(context.Background()); err != nil {
		t.Errorf("after recover err = %v", err)
	}
	if backend.Hits(http.MethodGet, "/users") != 3 {
		t.Errorf("hits = %d, want 3", backend.Hits(http.MethodGet, "/users"))
	}
}

func TestErrorType_String(t *testing.T) {
	tests := map[ErrorType]string{
		ErrTypeRequest:    "request",
		ErrTypeConnection: "connection",
		ErrTypeStatus:     "status",
		ErrTypeDecode:     "decode",
		ErrTypeEnvelope:   "envelope",
		ErrTypeUnknown:    "unknown",
	}
	for typ, want := range tests {
		if got := typ.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", typ, got, want)
		}
	}
}
