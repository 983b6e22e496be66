// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/necx/necx-tui/internal/config"
	"github.com/necx/necx-tui/internal/logging"
	"github.com/necx/necx-tui/internal/state"
	"github.com/necx/necx-tui/internal/ui/app"
	"github.com/necx/necx-tui/internal/ui/components"
)

func newTUICmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the terminal UI (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, a)
		},
	}
}

// runTUI owns the terminal until the user quits.
func runTUI(cmd *cobra.Command, a *App) error {
	if !IsStdinTTY() || !IsTerminal(cmd.OutOrStdout()) {
		return fmt.Errorf("the terminal UI needs an interactive terminal; see \"necx --help\" for scriptable commands")
	}

	// The screen belongs to the UI, so logs go to a file.
	logPath, err := a.cfg.LogFile()
	if err != nil {
		return err
	}
	logger, logCloser, err := logging.NewFile(a.cfg.Log.Level, logPath)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	a.logger = logger

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	toasts := components.NewToastManager()
	store := state.NewStore(a.Client(), toasts, logger)

	bridge, closeStorage, err := a.openBridge()
	if err != nil {
		return err
	}
	defer closeStorage()
	bridge.Rehydrate(store)
	detach := bridge.Attach(store)
	defer detach()

	var reloads <-chan config.Reload
	if a.cfgPath != "" {
		ch, err := config.Watch(ctx, config.LoadOptions{Path: a.cfgPath, EnvFile: a.envFile, Logger: logger})
		if err != nil {
			logger.Warn().Err(err).Str("path", a.cfgPath).Msg("config hot reload disabled")
		} else {
			reloads = ch
		}
	}

	logger.Info().Str("base_url", a.cfg.API.BaseURL).Str("storage", a.cfg.Storage.Backend).Msg("starting terminal UI")

	m := app.New(ctx, app.Options{
		Store:   store,
		Toasts:  toasts,
		Config:  a.cfg,
		Reloads: reloads,
		Logger:  logger,
	})
	defer m.Close()

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("terminal UI: %w", err)
	}
	return nil
}
