// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/necx/necx-tui/internal/api"
)

// loadFrom loads path with an env file that does not exist, so the
// working directory's .env never leaks into tests.
func loadFrom(t *testing.T, path string, writeDefault bool) (*Config, error) {
	t.Helper()
	cfg, _, err := LoadWithOptions(LoadOptions{
		Path:         path,
		EnvFile:      filepath.Join(t.TempDir(), "absent.env"),
		WriteDefault: writeDefault,
	})
	return cfg, err
}

func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if cfg.API.BaseURL != "http://localhost:4000/api" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.TimeoutSecs != 0 {
		t.Errorf("API.TimeoutSecs = %d, want 0 (no timeout)", cfg.API.TimeoutSecs)
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("Storage.Backend = %q", cfg.Storage.Backend)
	}
	if cfg.UI.AutoRefresh {
		t.Error("auto refresh should be off by default")
	}
	if cfg.RefreshInterval() != 5*time.Second {
		t.Errorf("RefreshInterval = %v", cfg.RefreshInterval())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_WritesDefaultWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := loadFrom(t, path, true)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.BaseURL != api.DefaultBaseURL {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if !strings.Contains(string(data), "[api]") || !strings.Contains(string(data), "base_url") {
		t.Errorf("unexpected default file:\n%s", data)
	}
	if runtime.GOOS != "windows" {
		info, _ := os.Stat(path)
		if info.Mode().Perm() != 0o600 {
			t.Errorf("config perm = %v, want 0600", info.Mode().Perm())
		}
	}
}

func TestLoad_MissingFileWithoutWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if _, err := loadFrom(t, path, false); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Error("config file should not be created")
	}
}

func TestLoad_FileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[api]
base_url = "https://chat.example.com/api"
timeout_secs = 15

[storage]
backend = "sqlite"

[ui]
auto_refresh = true
markdown = true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadFrom(t, path, false)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.BaseURL != "https://chat.example.com/api" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.ClientConfig().Timeout != 15*time.Second {
		t.Errorf("Timeout = %v", cfg.ClientConfig().Timeout)
	}
	if cfg.Storage.Backend != "sqlite" || !cfg.UI.AutoRefresh || !cfg.UI.Markdown {
		t.Errorf("unexpected config: %+v", cfg)
	}
	// Keys absent from the file keep their defaults.
	if cfg.UI.Theme != "auto" || cfg.Log.Level != "info" {
		t.Errorf("defaults lost: theme=%q level=%q", cfg.UI.Theme, cfg.Log.Level)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api]\nbase_url = \"http://file:1/api\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NECX_API_BASE_URL", "http://env:2/api")
	t.Setenv("NECX_UI_AUTO_REFRESH", "true")

	cfg, err := loadFrom(t, path, false)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.BaseURL != "http://env:2/api" {
		t.Errorf("BaseURL = %q, want env override", cfg.API.BaseURL)
	}
	if !cfg.UI.AutoRefresh {
		t.Error("NECX_UI_AUTO_REFRESH should enable auto refresh")
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("NECX_LOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("NECX_LOG_LEVEL") })

	cfg, _, err := LoadWithOptions(LoadOptions{
		Path:    filepath.Join(dir, "config.toml"),
		EnvFile: envFile,
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug from .env", cfg.Log.Level)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api\nbroken"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadFrom(t, path, false); err == nil {
		t.Error("expected parse error")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"relative url", func(c *Config) { c.API.BaseURL = "/api" }, "api.base_url"},
		{"bad scheme", func(c *Config) { c.API.BaseURL = "ftp://host/api" }, "api.base_url"},
		{"negative timeout", func(c *Config) { c.API.TimeoutSecs = -1 }, "api.timeout_secs"},
		{"negative rate", func(c *Config) { c.API.RequestsPerSecond = -2 }, "api.requests_per_second"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }, "storage.backend"},
		{"zero refresh", func(c *Config) { c.UI.RefreshIntervalSecs = 0 }, "ui.refresh_interval_secs"},
		{"unknown theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"unknown level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			var verrs ValidateErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidateErrors, got %v", err)
			}
			if len(verrs) != 1 || verrs[0].Field != tt.field {
				t.Errorf("errors = %v, want one error on %s", verrs, tt.field)
			}
		})
	}
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := Default()
	cfg.API.BaseURL = "https://example.org/api"
	cfg.UI.Markdown = true
	cfg.Storage.Dir = "/tmp/necx-state"

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML failed: %v", err)
	}
	loaded, err := loadFrom(t, path, false)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestConfigDir_HonorsEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvHome, dir)
	t.Setenv(EnvConfigPath, "")

	got, err := ConfigDir()
	if err != nil || got != dir {
		t.Errorf("ConfigDir = %q, %v", got, err)
	}
	path, _ := ConfigPathTOML()
	if path != filepath.Join(dir, "config.toml") {
		t.Errorf("ConfigPathTOML = %q", path)
	}

	cfg := Default()
	storageDir, _ := cfg.StorageDir()
	if storageDir != filepath.Join(dir, "state") {
		t.Errorf("StorageDir = %q", storageDir)
	}
	logFile, _ := cfg.LogFile()
	if logFile != filepath.Join(dir, "necx.log") {
		t.Errorf("LogFile = %q", logFile)
	}
}

func TestOpenStorage(t *testing.T) {
	cfg := Default()
	cfg.Storage.Dir = t.TempDir()

	for _, backend := range []string{"file", "sqlite", "memory"} {
		cfg.Storage.Backend = backend
		kv, err := cfg.OpenStorage()
		if err != nil {
			t.Errorf("OpenStorage(%s) failed: %v", backend, err)
			continue
		}
		kv.Close()
	}
}

func TestWatch_DeliversReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := SaveTOML(Default(), path); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloads, err := Watch(ctx, LoadOptions{Path: path, EnvFile: filepath.Join(t.TempDir(), "absent.env")})
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	updated := Default()
	updated.UI.AutoRefresh = true
	if err := SaveTOML(updated, path); err != nil {
		t.Fatal(err)
	}

	select {
	case r := <-reloads:
		if r.Err != nil {
			t.Fatalf("reload error: %v", r.Err)
		}
		if !r.Config.UI.AutoRefresh {
			t.Error("reloaded config should have auto refresh on")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload delivered")
	}

	cancel()
	for range reloads {
	}
}
