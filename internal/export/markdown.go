// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/necx/necx-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports transcripts to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a transcript to Markdown format.
func (e *MarkdownExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder

	// YAML frontmatter with metadata
	if e.options.IncludeMetadata {
		first, last := span(t.Messages)
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(t.Title())))
		sb.WriteString(fmt.Sprintf("participants: [%s, %s]\n", escapeYAML(t.Self.Name), escapeYAML(t.Peer.Name)))
		sb.WriteString(fmt.Sprintf("date: %s\n", first.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("updated: %s\n", last.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("messages: %d\n", len(t.Messages)))
		sb.WriteString(fmt.Sprintf("exported: %s\n", t.ExportedAt.Format(time.RFC3339)))
		sb.WriteString("generator: necx\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(t.Title())))

	if e.options.IncludeMetadata {
		first, last := span(t.Messages)
		sb.WriteString("## Conversation Information\n\n")
		sb.WriteString(fmt.Sprintf("- **You**: %s\n", escapeMarkdown(t.Self.Name)))
		sb.WriteString(fmt.Sprintf("- **With**: %s\n", escapeMarkdown(t.Peer.Name)))
		sb.WriteString(fmt.Sprintf("- **First Message**: %s\n", formatTimestamp(first)))
		sb.WriteString(fmt.Sprintf("- **Last Message**: %s\n", formatTimestamp(last)))
		sb.WriteString(fmt.Sprintf("- **Messages**: %d\n", len(t.Messages)))
		sb.WriteString("\n---\n\n")
	}

	sb.WriteString("## Conversation\n\n")

	for i, msg := range t.Messages {
		sb.WriteString(e.formatHeading(t, msg))
		sb.WriteString(strings.TrimSpace(msg.Content))
		sb.WriteString("\n\n")

		if i < len(t.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from necx on %s*\n",
		t.ExportedAt.Format("January 2, 2006 at 3:04 PM")))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// formatHeading returns the "### Sender" line of one message.
func (e *MarkdownExporter) formatHeading(t *Transcript, msg model.Message) string {
	label := escapeMarkdown(senderLabel(t, msg))
	if e.options.IncludeTimestamps {
		label += fmt.Sprintf(" <sub>%s</sub>", formatTimestamp(msg.DisplayTime()))
	}
	if msg.IsEdited {
		label += " *(edited)*"
	}
	return "### " + label + "\n\n"
}

// senderLabel marks the exporting user's own messages.
func senderLabel(t *Transcript, msg model.Message) string {
	if msg.IsOwnedBy(&t.Self) {
		return msg.Sender + " (you)"
	}
	if msg.Sender == "" {
		return "Unknown"
	}
	return msg.Sender
}

// span returns the display times of the first and last message.
func span(msgs []model.Message) (first, last time.Time) {
	if len(msgs) == 0 {
		return time.Time{}, time.Time{}
	}
	return msgs[0].DisplayTime(), msgs[len(msgs)-1].DisplayTime()
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	// Only escape characters that would break formatting in titles/headings
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML quotes values that would not survive as plain YAML scalars.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*,\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
