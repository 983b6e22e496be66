// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/necx/necx-tui/internal/export"
	"github.com/necx/necx-tui/internal/model"
	"github.com/necx/necx-tui/internal/state"
	"github.com/necx/necx-tui/internal/ui/styles"
)

func newMessagesCmd(app *App) *cobra.Command {
	messagesCmd := &cobra.Command{
		Use:     "messages",
		Aliases: []string{"msg", "message"},
		Short:   "List, send, edit and delete messages",
	}

	var listAs, listWith string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the conversation between two users",
		Long: `List the conversation between two users, oldest first.

Users are given by id or name. When --as or --with is omitted the pair
saved by "necx select" or the terminal UI is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.useConversation(cmd.Context(), listAs, listWith); err != nil {
				return err
			}
			store := app.Store()
			if err := store.FetchMessages(cmd.Context()); err != nil {
				return err
			}
			return newPrinter(cmd.OutOrStdout(), app.format()).messages(store.Snapshot().Messages)
		},
	}
	listCmd.Flags().StringVar(&listAs, "as", "", "who you are (id or name)")
	listCmd.Flags().StringVar(&listWith, "with", "", "who you talk to (id or name)")

	var sendAs, sendTo string
	sendCmd := &cobra.Command{
		Use:   "send TEXT...",
		Short: "Send a message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.useConversation(cmd.Context(), sendAs, sendTo); err != nil {
				return err
			}
			msg, err := app.Store().SendMessage(cmd.Context(), joinArgs(args))
			if err != nil {
				return err
			}
			return newPrinter(cmd.OutOrStdout(), app.format()).message(*msg)
		},
	}
	sendCmd.Flags().StringVar(&sendAs, "as", "", "sender (id or name)")
	sendCmd.Flags().StringVar(&sendTo, "to", "", "recipient (id or name)")

	editCmd := &cobra.Command{
		Use:   "edit ID TEXT...",
		Short: "Replace the content of a message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			current, err := app.Client().GetMessage(ctx, args[0])
			if err != nil {
				return err
			}
			store := app.Store()
			store.Dispatch(state.SetMessages{Messages: []model.Message{*current}})

			updated, err := store.EditMessage(ctx, current.ID, joinArgs(args[1:]))
			if err != nil {
				return err
			}
			return newPrinter(cmd.OutOrStdout(), app.format()).message(*updated)
		},
	}

	deleteCmd := &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a message",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Store().RemoveMessage(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), styles.RenderSuccess("Deleted message "+args[0]))
			return nil
		},
	}

	var exportAs, exportWith, exportFormat, exportDir string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export a conversation as Markdown, HTML or JSON",
		Long: `Export the conversation between two users.

The transcript is written to stdout unless --dir is given, in which case
a timestamped file is created there and its path is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := export.DefaultOptions()
			if strings.EqualFold(app.cfg.UI.Theme, "light") {
				opts.Theme = "light"
			}
			exporter, err := export.ForFormat(exportFormat, opts)
			if err != nil {
				return err
			}
			if err := app.useConversation(cmd.Context(), exportAs, exportWith); err != nil {
				return err
			}
			store := app.Store()
			if err := store.FetchMessages(cmd.Context()); err != nil {
				return err
			}
			transcript, err := export.NewTranscript(store.Snapshot(), time.Now())
			if err != nil {
				return err
			}

			if exportDir == "" {
				return export.Write(cmd.OutOrStdout(), transcript, exporter)
			}
			path, err := export.ToFile(transcript, exporter, exportDir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	exportCmd.Flags().StringVar(&exportAs, "as", "", "who you are (id or name)")
	exportCmd.Flags().StringVar(&exportWith, "with", "", "who you talk to (id or name)")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "markdown", "export format: markdown, html or json")
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "write a file into this directory instead of stdout")

	messagesCmd.AddCommand(listCmd, sendCmd, editCmd, deleteCmd, exportCmd)
	return messagesCmd
}

// useConversation installs the participant pair in the store. References
// are ids or names; an empty one falls back to the persisted selection.
func (a *App) useConversation(ctx context.Context, selfRef, peerRef string) error {
	store := a.Store()

	if selfRef == "" || peerRef == "" {
		bridge, closeFn, err := a.openBridge()
		if err != nil {
			return err
		}
		bridge.Rehydrate(store)
		closeFn()
	}

	if selfRef != "" || peerRef != "" {
		if err := store.FetchUsers(ctx); err != nil {
			return err
		}
		users := store.Snapshot().Users
		if selfRef != "" {
			self, err := resolveUser(users, selfRef)
			if err != nil {
				return err
			}
			store.SetCurrentUser(self)
		}
		if peerRef != "" {
			peer, err := resolveUser(users, peerRef)
			if err != nil {
				return err
			}
			store.SelectUser(peer)
		}
	}

	if !store.Snapshot().Conversation().Valid() {
		return fmt.Errorf("%w: pass both users or run \"necx select\" first", state.ErrMissingParticipant)
	}
	return nil
}
