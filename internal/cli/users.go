// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/spf13/cobra"

	"github.com/necx/necx-tui/internal/state"
)

func newUsersCmd(app *App) *cobra.Command {
	usersCmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "List, create and inspect users",
	}

	var search string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the user directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := app.Store()
			if err := store.FetchUsers(cmd.Context()); err != nil {
				return err
			}
			users := state.FilterUsers(store.Snapshot().Users, search)
			return newPrinter(cmd.OutOrStdout(), app.format()).users(users)
		},
	}
	listCmd.Flags().StringVarP(&search, "search", "s", "", "only users whose name contains this text")

	createCmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a user",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := app.Store().CreateUser(cmd.Context(), joinArgs(args))
			if err != nil {
				return err
			}
			return newPrinter(cmd.OutOrStdout(), app.format()).user(*user)
		},
	}

	showCmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := app.Client().GetUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return newPrinter(cmd.OutOrStdout(), app.format()).user(*user)
		},
	}

	usersCmd.AddCommand(listCmd, createCmd, showCmd)
	return usersCmd
}
