// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/necx/necx-tui/internal/config"
	"github.com/necx/necx-tui/internal/model"
	"github.com/necx/necx-tui/internal/state"
	"github.com/necx/necx-tui/internal/ui/components"
	"github.com/necx/necx-tui/internal/ui/styles"
	"github.com/necx/necx-tui/internal/util"
)

// historyFileName lives in the config directory.
const historyFileName = "chat_history"

// =============================================================================
// LINE INPUT
// =============================================================================

// lineReader supplies REPL input one line at a time.
type lineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// linerReader provides history and line editing on a terminal.
type linerReader struct {
	line        *liner.State
	historyFile string
}

func newLinerReader(historyFile string) *linerReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	r := &linerReader{line: line, historyFile: historyFile}
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *linerReader) Prompt(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the terminal.
func (r *linerReader) Close() error {
	if err := os.MkdirAll(filepath.Dir(r.historyFile), util.DirPerm); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			_, _ = r.line.WriteHistory(f)
			f.Close()
		}
	}
	return r.line.Close()
}

// scanReader reads piped input. The prompt is not echoed.
type scanReader struct {
	scanner *bufio.Scanner
}

func (r *scanReader) Prompt(string) (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *scanReader) Close() error { return nil }

// =============================================================================
// CHAT COMMAND
// =============================================================================

func newChatCmd(app *App) *cobra.Command {
	var as, with string

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat in line mode",
		Long: `Chat with another user from a plain prompt.

Type a line and press Enter to send it. Commands:
  /refresh   Fetch new messages
  /who       Show the participants
  /help      Show this help
  /quit      Leave (Ctrl+D and Ctrl+C work too)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.useConversation(ctx, as, with); err != nil {
				return err
			}

			var in lineReader
			if f, ok := cmd.InOrStdin().(*os.File); ok && f == os.Stdin && IsStdinTTY() {
				dir, err := config.ConfigDir()
				if err != nil {
					dir = os.TempDir()
				}
				in = newLinerReader(filepath.Join(dir, historyFileName))
			} else {
				in = &scanReader{scanner: bufio.NewScanner(cmd.InOrStdin())}
			}
			defer in.Close()

			session := newChatSession(app, cmd.OutOrStdout())
			return session.run(cmd, in)
		},
	}
	chatCmd.Flags().StringVar(&as, "as", "", "who you are (id or name)")
	chatCmd.Flags().StringVar(&with, "with", "", "who you talk to (id or name)")
	return chatCmd
}

// =============================================================================
// SESSION
// =============================================================================

// chatSession prints the conversation incrementally.
type chatSession struct {
	store    *state.Store
	out      io.Writer
	markdown *components.Markdown
	width    int
	seen     map[string]bool

	self   lipgloss.Style
	peer   lipgloss.Style
	dim    lipgloss.Style
	errSty lipgloss.Style
}

func newChatSession(app *App, out io.Writer) *chatSession {
	r := Renderer(out)
	return &chatSession{
		store:    app.Store(),
		out:      out,
		markdown: components.NewMarkdown(app.cfg.UI.Markdown),
		width:    TerminalWidth(out),
		seen:     make(map[string]bool),
		self:     r.NewStyle().Bold(true).Foreground(styles.Purple),
		peer:     r.NewStyle().Bold(true).Foreground(styles.Cyan),
		dim:      r.NewStyle().Foreground(styles.TextMuted),
		errSty:   r.NewStyle().Foreground(styles.Rose),
	}
}

func (s *chatSession) run(cmd *cobra.Command, in lineReader) error {
	ctx := cmd.Context()
	self, peer := s.store.Snapshot().Conversation().Names()
	fmt.Fprintf(s.out, "%s\n", s.dim.Render(fmt.Sprintf("Chatting as %s with %s. Type /help for commands.", self, peer)))

	if err := s.refresh(cmd); err != nil {
		return err
	}

	prompt := self + "> "
	for {
		input, err := in.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out)
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			quit, err := s.command(cmd, input)
			if err != nil {
				fmt.Fprintln(s.out, s.errSty.Render("[Error] "+err.Error()))
			}
			if quit {
				return nil
			}
			continue
		}

		msg, err := s.store.SendMessage(ctx, input)
		if err != nil {
			fmt.Fprintln(s.out, s.errSty.Render("[Error] Failed to send message: "+err.Error()))
			continue
		}
		s.print(*msg)
	}
}

// command runs a slash command and reports whether the session should end.
func (s *chatSession) command(cmd *cobra.Command, input string) (quit bool, err error) {
	name := strings.ToLower(strings.Fields(input)[0])
	switch name {
	case "/quit", "/exit", "/q":
		return true, nil
	case "/refresh", "/r":
		return false, s.refresh(cmd)
	case "/who":
		snap := s.store.Snapshot()
		fmt.Fprintf(s.out, "You are:   %s\nChat with: %s\n", describeUser(snap.CurrentUser), describeUser(snap.SelectedUser))
		return false, nil
	case "/help", "/h", "/?":
		fmt.Fprintln(s.out, cmd.Long)
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %s (try /help)", name)
	}
}

// refresh fetches the conversation and prints messages not shown yet.
func (s *chatSession) refresh(cmd *cobra.Command) error {
	if err := s.store.FetchMessages(cmd.Context()); err != nil {
		return fmt.Errorf("failed to load messages: %w", err)
	}
	msgs := s.store.Snapshot().Messages
	for _, m := range msgs {
		if !s.seen[m.ID] {
			s.print(m)
		}
	}
	if len(msgs) == 0 {
		fmt.Fprintln(s.out, s.dim.Render("No messages yet. Start the conversation!"))
	}
	return nil
}

func (s *chatSession) print(m model.Message) {
	s.seen[m.ID] = true

	snap := s.store.Snapshot()
	name := s.peer.Render(m.Sender)
	if m.IsOwnedBy(snap.CurrentUser) {
		name = s.self.Render("You")
	}
	meta := m.DisplayTime().Local().Format("15:04")
	if m.IsEdited {
		meta += " (edited)"
	}

	body := s.markdown.Render(m.Content, s.width-4)
	fmt.Fprintf(s.out, "%s %s: %s\n", s.dim.Render("["+meta+"]"), name, body)
}
