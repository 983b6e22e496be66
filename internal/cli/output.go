// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/necx/necx-tui/internal/model"
	"github.com/necx/necx-tui/internal/ui/styles"
	"github.com/necx/necx-tui/internal/util"
)

// Format selects how command results are printed.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates an --output value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

// previewWidth bounds message content in table cells.
const previewWidth = 48

// =============================================================================
// PRINTER
// =============================================================================

// printer writes one result in the selected format.
type printer struct {
	out    io.Writer
	format Format
	now    func() time.Time
}

func newPrinter(out io.Writer, format Format) printer {
	return printer{out: out, format: format, now: time.Now}
}

// print writes v as JSON or YAML, or headers and rows as a table.
func (p printer) print(v any, headers []string, rows [][]string) error {
	switch p.format {
	case FormatJSON:
		return writeJSON(p.out, v)
	case FormatYAML:
		return writeYAML(p.out, v)
	default:
		return writeTable(p.out, headers, rows)
	}
}

func (p printer) users(users []model.User) error {
	if users == nil {
		users = []model.User{}
	}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.ID, u.Name, p.relTime(u.CreatedAt)})
	}
	return p.print(users, []string{"ID", "NAME", "JOINED"}, rows)
}

func (p printer) user(u model.User) error {
	return p.users([]model.User{u})
}

func (p printer) messages(msgs []model.Message) error {
	if msgs == nil {
		msgs = []model.Message{}
	}
	rows := make([][]string, 0, len(msgs))
	for _, m := range msgs {
		edited := ""
		if m.IsEdited {
			edited = "yes"
		}
		rows = append(rows, []string{
			m.ID,
			m.Sender,
			m.Recipient,
			util.Truncate(util.SingleLine(m.Content), previewWidth),
			p.relTime(m.DisplayTime()),
			edited,
		})
	}
	return p.print(msgs, []string{"ID", "FROM", "TO", "CONTENT", "SENT", "EDITED"}, rows)
}

func (p printer) message(m model.Message) error {
	return p.messages([]model.Message{m})
}

func (p printer) relTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.RelTime(t, p.now(), "ago", "from now")
}

// =============================================================================
// TABLE
// =============================================================================

func writeTable(out io.Writer, headers []string, rows [][]string) error {
	r := Renderer(out)
	header := r.NewStyle().Bold(true).Foreground(styles.Purple).Padding(0, 1)
	cell := r.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.NewStyle().Foreground(styles.Overlay)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})

	_, err := fmt.Fprintln(out, t.String())
	return err
}

// =============================================================================
// JSON
// =============================================================================

// writeJSON prints v indented, highlighted when out is a color terminal.
func writeJSON(out io.Writer, v any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	if ColorsEnabled(out) {
		if err := highlight(out, buf.String(), "json"); err == nil {
			return nil
		}
	}
	_, err := out.Write(buf.Bytes())
	return err
}

// highlight writes code through chroma's terminal formatter.
func highlight(out io.Writer, code, language string) error {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return err
	}
	return formatter.Format(out, style, iterator)
}

// =============================================================================
// YAML
// =============================================================================

// writeYAML prints v as block YAML with the field names and order of its
// JSON encoding.
func writeYAML(out io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	// JSON is YAML, so the node tree keeps key order.
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	blockStyle(&node)

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// blockStyle drops the flow and quoting styles the JSON parse left behind.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
