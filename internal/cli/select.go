// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/necx/necx-tui/internal/model"
)

func newSelectCmd(app *App) *cobra.Command {
	var as, with string
	var clear bool

	selectCmd := &cobra.Command{
		Use:   "select",
		Short: "Show or persist the participant pair",
		Long: `Show or persist who you are and who you talk to.

The pair is the same one the terminal UI restores on start. Without flags
the saved pair is printed unchanged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clear && (as != "" || with != "") {
				return fmt.Errorf("--clear cannot be combined with --as or --with")
			}

			bridge, closeFn, err := app.openBridge()
			if err != nil {
				return err
			}
			defer closeFn()

			store := app.Store()
			bridge.Rehydrate(store)
			detach := bridge.Attach(store)
			defer detach()

			switch {
			case clear:
				store.SetCurrentUser(nil)
				store.SelectUser(nil)
			case as != "" || with != "":
				if err := store.FetchUsers(cmd.Context()); err != nil {
					return err
				}
				users := store.Snapshot().Users
				if as != "" {
					self, err := resolveUser(users, as)
					if err != nil {
						return err
					}
					store.SetCurrentUser(self)
				}
				if with != "" {
					peer, err := resolveUser(users, with)
					if err != nil {
						return err
					}
					store.SelectUser(peer)
				}
			}

			snap := store.Snapshot()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "You are:   %s\n", describeUser(snap.CurrentUser))
			fmt.Fprintf(out, "Chat with: %s\n", describeUser(snap.SelectedUser))
			return nil
		},
	}
	selectCmd.Flags().StringVar(&as, "as", "", "who you are (id or name)")
	selectCmd.Flags().StringVar(&with, "with", "", "who you talk to (id or name)")
	selectCmd.Flags().BoolVar(&clear, "clear", false, "forget both users")
	return selectCmd
}

func describeUser(u *model.User) string {
	if u == nil {
		return "(none)"
	}
	return fmt.Sprintf("%s (%s)", u.Name, u.ID)
}
