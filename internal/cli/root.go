// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/necx/necx-tui/internal/api"
	"github.com/necx/necx-tui/internal/config"
	"github.com/necx/necx-tui/internal/logging"
	"github.com/necx/necx-tui/internal/model"
	"github.com/necx/necx-tui/internal/state"
	"github.com/necx/necx-tui/internal/storage"
)

// Version information (set at build time)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// APP RUNTIME
// =============================================================================

// App holds what a command invocation shares: flags, the resolved config,
// and the lazily built client and store.
type App struct {
	configPath string
	envFile    string
	baseURL    string
	logLevel   string
	output     string

	cfg     *config.Config
	cfgPath string
	logger  *zerolog.Logger
	client  *api.Client
	store   *state.Store
}

// load resolves the configuration and applies the global flags on top.
func (a *App) load(cmd *cobra.Command) error {
	if a.cfg != nil {
		return nil
	}
	if _, err := ParseFormat(a.output); err != nil {
		return err
	}

	cfg, path, err := config.LoadWithOptions(config.LoadOptions{
		Path:         a.configPath,
		EnvFile:      a.envFile,
		WriteDefault: true,
	})
	if err != nil {
		return err
	}
	if a.baseURL != "" {
		cfg.API.BaseURL = a.baseURL
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	a.cfg, a.cfgPath = cfg, path
	a.logger = logging.New(cfg.Log.Level, cmd.ErrOrStderr())
	return nil
}

// Client returns the HTTP client for the configured backend.
func (a *App) Client() *api.Client {
	if a.client == nil {
		a.client = api.NewClientWithConfig(a.cfg.ClientConfig()).WithLogger(a.logger)
	}
	return a.client
}

// Store returns a store whose notifications go to the log.
func (a *App) Store() *state.Store {
	if a.store == nil {
		a.store = state.NewStore(a.Client(), state.LogNotifier{Logger: a.logger}, a.logger)
	}
	return a.store
}

// openBridge opens the selection backend. The returned func closes it.
func (a *App) openBridge() (*storage.Bridge, func(), error) {
	kv, err := a.cfg.OpenStorage()
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	closeFn := func() {
		if err := kv.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to close storage")
		}
	}
	return storage.NewBridge(kv, a.logger), closeFn, nil
}

// format returns the validated --output value.
func (a *App) format() Format {
	f, _ := ParseFormat(a.output)
	return f
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCmd builds the necx command tree.
func NewRootCmd() *cobra.Command {
	app := &App{}

	rootCmd := &cobra.Command{
		Use:   "necx",
		Short: "Terminal client for the NECX messaging service",
		Long: `necx talks to a NECX messaging backend.

Run it without arguments to open the terminal UI, or use the subcommands
to script users and messages from the shell.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&app.configPath, "config", "", "config file (default ~/.necx/config.toml)")
	flags.StringVar(&app.envFile, "env-file", "", "dotenv file read before the environment (default .env)")
	flags.StringVar(&app.baseURL, "base-url", "", "backend API root, e.g. http://localhost:4000/api")
	flags.StringVar(&app.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVarP(&app.output, "output", "o", string(FormatTable), "output format: table, json, yaml")

	rootCmd.AddCommand(
		newTUICmd(app),
		newUsersCmd(app),
		newMessagesCmd(app),
		newChatCmd(app),
		newSelectCmd(app),
		newHealthCmd(app),
		newConfigCmd(app),
	)
	return rootCmd
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// resolveUser finds a user by id, then by case-insensitive name.
func resolveUser(users []model.User, ref string) (*model.User, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty user reference")
	}
	if u := model.FindUser(users, ref); u != nil {
		return u, nil
	}
	if u := model.FindUserByName(users, ref); u != nil {
		return u, nil
	}
	return nil, fmt.Errorf("unknown user %q", ref)
}

// joinArgs turns the trailing words of a command into message text.
func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
