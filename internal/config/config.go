// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for necx.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/necx/necx-tui/internal/api"
	"github.com/necx/necx-tui/internal/storage"
	"github.com/necx/necx-tui/internal/util"
)

// EnvPrefix prefixes every environment override, e.g. NECX_API_BASE_URL.
const EnvPrefix = "NECX"

// Environment variables read outside the viper key space.
const (
	EnvHome       = "NECX_HOME"   // overrides ~/.necx
	EnvConfigPath = "NECX_CONFIG" // overrides ~/.necx/config.toml
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete necx configuration.
type Config struct {
	API     APIConfig     `toml:"api" json:"api" yaml:"api" mapstructure:"api"`
	Storage StorageConfig `toml:"storage" json:"storage" yaml:"storage" mapstructure:"storage"`
	UI      UIConfig      `toml:"ui" json:"ui" yaml:"ui" mapstructure:"ui"`
	Log     LogConfig     `toml:"log" json:"log" yaml:"log" mapstructure:"log"`
}

// APIConfig contains backend connection settings.
type APIConfig struct {
	// BaseURL is the API root including the /api prefix
	BaseURL string `toml:"base_url" json:"base_url" yaml:"base_url" mapstructure:"base_url"`
	// TimeoutSecs bounds each request (0 = no client-side timeout)
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs" yaml:"timeout_secs" mapstructure:"timeout_secs"`
	// RequestsPerSecond throttles outgoing calls (0 = unlimited)
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// StorageConfig selects where the participant selection is persisted.
type StorageConfig struct {
	// Backend is "file", "sqlite" or "memory"
	Backend string `toml:"backend" json:"backend" yaml:"backend" mapstructure:"backend"`
	// Dir holds the backend's files (default: ~/.necx/state)
	Dir string `toml:"dir" json:"dir" yaml:"dir" mapstructure:"dir"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// AutoRefresh re-fetches users and messages on a timer
	AutoRefresh bool `toml:"auto_refresh" json:"auto_refresh" yaml:"auto_refresh" mapstructure:"auto_refresh"`
	// RefreshIntervalSecs is the auto-refresh period
	RefreshIntervalSecs int `toml:"refresh_interval_secs" json:"refresh_interval_secs" yaml:"refresh_interval_secs" mapstructure:"refresh_interval_secs"`
	// Markdown renders message bodies as markdown
	Markdown bool `toml:"markdown" json:"markdown" yaml:"markdown" mapstructure:"markdown"`
	// Theme is "auto", "dark" or "light"
	Theme string `toml:"theme" json:"theme" yaml:"theme" mapstructure:"theme"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is "debug", "info", "warn" or "error"
	Level string `toml:"level" json:"level" yaml:"level" mapstructure:"level"`
	// File receives TUI logs (default: ~/.necx/necx.log)
	File string `toml:"file" json:"file" yaml:"file" mapstructure:"file"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: api.DefaultBaseURL,
		},
		Storage: StorageConfig{
			Backend: string(storage.BackendFile),
		},
		UI: UIConfig{
			AutoRefresh:         false,
			RefreshIntervalSecs: 5,
			Markdown:            false,
			Theme:               "auto",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// SetDefaults fills zero values with defaults.
func (c *Config) SetDefaults() {
	d := Default()
	if c.API.BaseURL == "" {
		c.API.BaseURL = d.API.BaseURL
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if c.UI.RefreshIntervalSecs == 0 {
		c.UI.RefreshIntervalSecs = d.UI.RefreshIntervalSecs
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the necx configuration directory, ~/.necx unless
// NECX_HOME is set.
func ConfigDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".necx"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// StorageDir returns the configured storage directory or its default.
func (c *Config) StorageDir() (string, error) {
	if c.Storage.Dir != "" {
		return c.Storage.Dir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state"), nil
}

// LogFile returns the configured TUI log file or its default.
func (c *Config) LogFile() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "necx.log"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// LoadOptions controls where Load looks.
type LoadOptions struct {
	// Path overrides the config file location.
	Path string
	// EnvFile is a dotenv file loaded before the environment is read.
	// Default: ".env" in the working directory. Missing files are ignored.
	EnvFile string
	// WriteDefault creates the config file with defaults when it is missing.
	WriteDefault bool
	// Logger receives informational messages. May be nil.
	Logger *zerolog.Logger
}

// Load reads the default config file, writing it first if it is missing.
func Load() (*Config, error) {
	cfg, _, err := LoadWithOptions(LoadOptions{WriteDefault: true})
	return cfg, err
}

// LoadWithOptions builds the configuration and returns it with the resolved
// file path.
//
// Precedence: defaults < config file < .env file < NECX_* environment.
// Flags are applied by the caller afterwards.
func LoadWithOptions(opts LoadOptions) (*Config, string, error) {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to read env file")
	}

	path := opts.Path
	if path == "" {
		p, err := ConfigPathTOML()
		if err != nil {
			return nil, "", err
		}
		path = p
	}

	defaults := Default()
	v := viper.New()
	v.SetConfigType("toml")
	setViperDefaults(v, defaults)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, path, fmt.Errorf("read config: %w", err)
		}
		if opts.WriteDefault {
			if err := SaveTOML(defaults, path); err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("failed to write default config")
			} else {
				logger.Info().Str("path", path).Msg("created default config")
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, path, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, path, nil
}

// setViperDefaults registers every key so AutomaticEnv can override it.
func setViperDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout_secs", d.API.TimeoutSecs)
	v.SetDefault("api.requests_per_second", d.API.RequestsPerSecond)
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.dir", d.Storage.Dir)
	v.SetDefault("ui.auto_refresh", d.UI.AutoRefresh)
	v.SetDefault("ui.refresh_interval_secs", d.UI.RefreshIntervalSecs)
	v.SetDefault("ui.markdown", d.UI.Markdown)
	v.SetDefault("ui.theme", d.UI.Theme)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML writes the configuration to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	data, err := cfg.EncodeTOML()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# necx configuration file")
	fmt.Fprintln(&buf, "# Environment variables (NECX_API_BASE_URL, NECX_LOG_LEVEL, ...) override these values.")
	fmt.Fprintln(&buf, "")
	buf.Write(data)

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// EncodeTOML returns the TOML encoding of the configuration.
func (c *Config) EncodeTOML() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validThemes    = []string{"auto", "dark", "light"}
	validLogLevels = []string{"debug", "info", "warn", "warning", "error"}
)

// Validate checks the configuration and returns ValidateErrors when
// anything is wrong.
func (c *Config) Validate() error {
	var errs ValidateErrors

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, ValidationError{
			Field:   "api.base_url",
			Message: fmt.Sprintf("invalid URL '%s', must be an absolute http or https URL", c.API.BaseURL),
		})
	}
	if c.API.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "api.timeout_secs", Message: "must not be negative"})
	}
	if c.API.RequestsPerSecond < 0 {
		errs = append(errs, ValidationError{Field: "api.requests_per_second", Message: "must not be negative"})
	}

	if !slices.Contains(storage.Backends, storage.Backend(strings.ToLower(c.Storage.Backend))) {
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite, memory", c.Storage.Backend),
		})
	}

	if c.UI.RefreshIntervalSecs < 1 {
		errs = append(errs, ValidationError{Field: "ui.refresh_interval_secs", Message: "must be at least 1"})
	}
	if !slices.Contains(validThemes, strings.ToLower(c.UI.Theme)) {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}

	if !slices.Contains(validLogLevels, strings.ToLower(c.Log.Level)) {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// ClientConfig returns the HTTP client settings.
func (c *Config) ClientConfig() *api.ClientConfig {
	cc := api.DefaultConfig()
	cc.BaseURL = c.API.BaseURL
	cc.Timeout = time.Duration(c.API.TimeoutSecs) * time.Second
	cc.RequestsPerSecond = c.API.RequestsPerSecond
	return cc
}

// RefreshInterval returns the auto-refresh period.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.UI.RefreshIntervalSecs) * time.Second
}

// OpenStorage opens the configured selection backend.
func (c *Config) OpenStorage() (storage.KV, error) {
	backend := storage.Backend(strings.ToLower(c.Storage.Backend))
	if backend == storage.BackendMemory {
		return storage.NewMemoryKV(), nil
	}
	dir, err := c.StorageDir()
	if err != nil {
		return nil, err
	}
	return storage.Open(backend, dir)
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
