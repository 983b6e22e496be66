// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/necx/necx-tui/internal/model"
	"github.com/necx/necx-tui/internal/state"
)

var (
	alice = model.User{ID: "u1", Name: "Alice"}
	bob   = model.User{ID: "u2", Name: "Bob"}
	carol = model.User{ID: "u3", Name: "Carol"}

	exportedAt = time.Date(2025, 3, 4, 15, 30, 0, 0, time.UTC)
)

func sampleState() state.State {
	at := func(min int) time.Time { return time.Date(2025, 3, 4, 10, min, 0, 0, time.UTC) }
	s := state.Initial()
	s.CurrentUser = &alice
	s.SelectedUser = &bob
	s.Messages = []model.Message{
		{ID: "m1", Sender: "Alice", Recipient: "Bob", Content: "Hi **Bob**", Timestamp: at(0)},
		{ID: "m2", Sender: "Bob", Recipient: "Alice", Content: "<script>alert(1)</script> hello", Timestamp: at(5), IsEdited: true},
		{ID: "m3", Sender: "Carol", Recipient: "Alice", Content: "not in this chat", Timestamp: at(7)},
	}
	return s
}

func sampleTranscript(t *testing.T) *Transcript {
	t.Helper()
	tr, err := NewTranscript(sampleState(), exportedAt)
	if err != nil {
		t.Fatalf("NewTranscript: %v", err)
	}
	return tr
}

func TestNewTranscript_FiltersToPair(t *testing.T) {
	tr := sampleTranscript(t)
	if len(tr.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(tr.Messages))
	}
	for _, m := range tr.Messages {
		if m.Sender == carol.Name {
			t.Errorf("message %s from outside the pair was kept", m.ID)
		}
	}
	if tr.Title() != "Alice and Bob" {
		t.Errorf("Title = %q", tr.Title())
	}
}

func TestNewTranscript_NeedsBothParticipants(t *testing.T) {
	s := sampleState()
	s.SelectedUser = nil
	if _, err := NewTranscript(s, exportedAt); !errors.Is(err, state.ErrMissingParticipant) {
		t.Errorf("err = %v, want ErrMissingParticipant", err)
	}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format string
		ext    string
	}{
		{"markdown", ".md"},
		{"MD", ".md"},
		{"html", ".html"},
		{"htm", ".html"},
		{"json", ".json"},
	}
	for _, tt := range tests {
		e, err := ForFormat(tt.format, nil)
		if err != nil {
			t.Errorf("ForFormat(%q): %v", tt.format, err)
			continue
		}
		if e.FileExtension() != tt.ext {
			t.Errorf("ForFormat(%q) ext = %q, want %q", tt.format, e.FileExtension(), tt.ext)
		}
	}
	if _, err := ForFormat("pdf", nil); err == nil {
		t.Error("unsupported format should fail")
	}
}

func TestMarkdownExporter(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleTranscript(t))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	md := string(out)
	for _, want := range []string{
		"---\ntitle: Alice and Bob\n",
		"participants: [Alice, Bob]",
		"messages: 2",
		"# Alice and Bob",
		"### Alice (you) <sub>2025-03-04 10:00:00</sub>",
		"Hi **Bob**",
		"### Bob <sub>2025-03-04 10:05:00</sub> *(edited)*",
		"*Exported from necx on March 4, 2025 at 3:30 PM*",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestMarkdownExporter_WithoutMetadata(t *testing.T) {
	opts := &Options{}
	out, err := NewMarkdownExporter(opts).Export(sampleTranscript(t))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	md := string(out)
	if strings.HasPrefix(md, "---") || strings.Contains(md, "Conversation Information") {
		t.Errorf("metadata should be omitted:\n%s", md)
	}
	if strings.Contains(md, "<sub>") {
		t.Errorf("timestamps should be omitted:\n%s", md)
	}
}

func TestHTMLExporter_EscapesAndRendersMarkdown(t *testing.T) {
	out, err := NewHTMLExporter(nil).Export(sampleTranscript(t))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	page := string(out)
	if !strings.Contains(page, "<strong>Bob</strong>") {
		t.Error("message markdown should be rendered")
	}
	if strings.Contains(page, "<script>alert(1)</script>") {
		t.Error("raw HTML in a message must not reach the page")
	}
	for _, want := range []string{`class="dark-theme"`, "self-message", "peer-message", "(edited)", "<title>Alice and Bob</title>"} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestHTMLExporter_LightTheme(t *testing.T) {
	opts := DefaultOptions()
	opts.Theme = "light"
	out, err := NewHTMLExporter(opts).Export(sampleTranscript(t))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.Contains(string(out), `class="light-theme"`) {
		t.Error("light theme not applied")
	}
}

func TestJSONExporter(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(sampleTranscript(t))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	var got Transcript
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Self.ID != alice.ID || got.Peer.ID != bob.ID || len(got.Messages) != 2 {
		t.Errorf("decoded = %+v", got)
	}
}

func TestFormattedExporters_RejectEmpty(t *testing.T) {
	s := sampleState()
	s.Messages = nil
	tr, err := NewTranscript(s, exportedAt)
	if err != nil {
		t.Fatalf("NewTranscript: %v", err)
	}

	for _, e := range []Exporter{NewMarkdownExporter(nil), NewHTMLExporter(nil)} {
		if _, err := e.Export(tr); !errors.Is(err, ErrEmptyConversation) {
			t.Errorf("%T: err = %v, want ErrEmptyConversation", e, err)
		}
	}
	out, err := NewJSONExporter(nil).Export(tr)
	if err != nil || !strings.Contains(string(out), `"messages": []`) {
		t.Errorf("json export of empty conversation = %s, %v", out, err)
	}
}

func TestToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	path, err := ToFile(sampleTranscript(t), NewMarkdownExporter(nil), dir)
	if err != nil {
		t.Fatalf("ToFile: %v", err)
	}
	if want := filepath.Join(dir, "conversation_Alice_and_Bob_20250304_153000.md"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "# Alice and Bob") {
		t.Errorf("unexpected file content:\n%s", data)
	}
}

func TestWrite(t *testing.T) {
	var sb strings.Builder
	if err := Write(&sb, sampleTranscript(t), NewJSONExporter(nil)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(sb.String(), `"exportedAt"`) {
		t.Errorf("output = %s", sb.String())
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Alice and Bob", "Alice_and_Bob"},
		{`a/b\c:d*e?f"g<h>i|j`, "a-b-c-d-e-f-g-h-i-j"},
		{"tab\there", "tab_here"},
		{"", "conversation"},
		{strings.Repeat("x", 80), strings.Repeat("x", 50)},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeYAML(t *testing.T) {
	if got := escapeYAML("plain"); got != "plain" {
		t.Errorf("plain = %q", got)
	}
	if got := escapeYAML(`a: "b"`); got != `"a: \"b\""` {
		t.Errorf("quoted = %q", got)
	}
}
