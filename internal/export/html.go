// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports transcripts to a standalone HTML page.
//
// Message bodies are rendered as GitHub-flavored markdown. Raw HTML inside
// a message is dropped, not passed through.
type HTMLExporter struct {
	options *Options
	md      goldmark.Markdown
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{
		options: opts,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		),
	}
}

// htmlMessage is one message as the page template sees it.
type htmlMessage struct {
	Class     string
	Sender    string
	Timestamp string
	Edited    bool
	Body      template.HTML
}

// htmlPage is the page template's data.
type htmlPage struct {
	Title    string
	Theme    string
	Metadata bool
	Self     string
	Peer     string
	Count    int
	First    string
	Last     string
	Exported string
	Messages []htmlMessage
}

// Export converts a transcript to HTML format.
func (e *HTMLExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	theme := strings.ToLower(e.options.Theme)
	if theme != "light" {
		theme = "dark"
	}
	first, last := span(t.Messages)

	page := htmlPage{
		Title:    t.Title(),
		Theme:    theme,
		Metadata: e.options.IncludeMetadata,
		Self:     t.Self.Name,
		Peer:     t.Peer.Name,
		Count:    len(t.Messages),
		First:    formatTimestamp(first),
		Last:     formatTimestamp(last),
		Exported: t.ExportedAt.Format("January 2, 2006 at 3:04 PM"),
	}

	for _, msg := range t.Messages {
		body, err := e.renderBody(msg.Content)
		if err != nil {
			return nil, fmt.Errorf("render message %s: %w", msg.ID, err)
		}
		class := "peer-message"
		if msg.IsOwnedBy(&t.Self) {
			class = "self-message"
		}
		hm := htmlMessage{
			Class:  class,
			Sender: senderLabel(t, msg),
			Edited: msg.IsEdited,
			Body:   body,
		}
		if e.options.IncludeTimestamps {
			hm.Timestamp = formatTimestamp(msg.DisplayTime())
		}
		page.Messages = append(page.Messages, hm)
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// renderBody converts message markdown to HTML. goldmark escapes text and
// omits raw HTML, so the result is safe to embed.
func (e *HTMLExporter) renderBody(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := e.md.Convert([]byte(strings.TrimSpace(content)), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// =============================================================================
// PAGE TEMPLATE
// =============================================================================

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <meta name="generator" content="necx">
    <title>{{.Title}}</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            --font-mono: "SF Mono", "Monaco", "Inconsolata", "Fira Code", "Source Code Pro", monospace;
        }

        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --bg-tertiary: #414868;
            --text-primary: #c0caf5;
            --text-secondary: #a9b1d6;
            --text-muted: #565f89;
            --self-bg: #2a2540;
            --peer-bg: #1f2335;
            --accent-self: #bb9af7;
            --accent-peer: #7dcfff;
        }

        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f7f8fa;
            --bg-tertiary: #e1e4e8;
            --text-primary: #24292e;
            --text-secondary: #586069;
            --text-muted: #6a737d;
            --self-bg: #f3efff;
            --peer-bg: #eef9fc;
            --accent-self: #7c3aed;
            --accent-peer: #0891b2;
        }

        body {
            font-family: var(--font-sans);
            font-size: 16px;
            line-height: 1.6;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container {
            max-width: 900px;
            margin: 0 auto;
            background: var(--bg-secondary);
            border-radius: 12px;
            overflow: hidden;
        }

        .header { padding: 32px; background: var(--bg-tertiary); }
        .header h1 { font-size: 28px; margin-bottom: 16px; }
        .metadata { display: flex; flex-wrap: wrap; gap: 16px; font-size: 14px; color: var(--text-secondary); }

        .conversation { padding: 24px 32px; display: flex; flex-direction: column; gap: 16px; }

        .message { max-width: 80%; padding: 14px 18px; border-radius: 8px; border-left: 4px solid transparent; }
        .self-message { align-self: flex-end; background: var(--self-bg); border-left-color: var(--accent-self); }
        .peer-message { align-self: flex-start; background: var(--peer-bg); border-left-color: var(--accent-peer); }

        .message-header { display: flex; gap: 12px; font-size: 13px; margin-bottom: 6px; }
        .sender { font-weight: 600; }
        .self-message .sender { color: var(--accent-self); }
        .peer-message .sender { color: var(--accent-peer); }
        .timestamp, .edited { color: var(--text-muted); }

        .message-content p { margin-bottom: 8px; }
        .message-content p:last-child { margin-bottom: 0; }
        .message-content pre { background: var(--bg-primary); padding: 12px; border-radius: 6px; overflow-x: auto; }
        .message-content code { font-family: var(--font-mono); font-size: 14px; }

        .footer { padding: 16px 32px; font-size: 13px; color: var(--text-muted); text-align: center; }
    </style>
</head>
<body class="{{.Theme}}-theme">
    <div class="container">
{{- if .Metadata}}
        <header class="header">
            <h1>{{.Title}}</h1>
            <div class="metadata">
                <span class="meta-item"><strong>You:</strong> {{.Self}}</span>
                <span class="meta-item"><strong>With:</strong> {{.Peer}}</span>
                <span class="meta-item"><strong>Messages:</strong> {{.Count}}</span>
                <span class="meta-item"><strong>From:</strong> {{.First}}</span>
                <span class="meta-item"><strong>To:</strong> {{.Last}}</span>
            </div>
        </header>
{{- end}}
        <main class="conversation">
{{- range .Messages}}
            <div class="message {{.Class}}">
                <div class="message-header">
                    <span class="sender">{{.Sender}}</span>
{{- if .Timestamp}}
                    <span class="timestamp">{{.Timestamp}}</span>
{{- end}}
{{- if .Edited}}
                    <span class="edited">(edited)</span>
{{- end}}
                </div>
                <div class="message-content">{{.Body}}</div>
            </div>
{{- end}}
        </main>
        <footer class="footer">
            <p>Exported from <strong>necx</strong> on {{.Exported}}</p>
        </footer>
    </div>
</body>
</html>
`))
