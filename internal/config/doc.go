// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for necx.
//
// # Key Types
//
//   - Config: main configuration structure
//   - APIConfig: backend URL, timeout, and request rate
//   - StorageConfig: where the participant selection is persisted
//   - UIConfig: auto-refresh, markdown, and theme
//   - LogConfig: level and TUI log file
//
// # Configuration Precedence
//
// Configuration is resolved from (highest first):
//   - command-line flags (applied by the cli package)
//   - NECX_* environment variables, e.g. NECX_API_BASE_URL
//   - a .env file in the working directory
//   - ~/.necx/config.toml
//   - built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := api.NewClientWithConfig(cfg.ClientConfig())
//
// Watch delivers a fresh Config whenever the file changes:
//
//	reloads, err := config.Watch(ctx, config.LoadOptions{})
package config
