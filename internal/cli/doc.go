// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the necx command line.
//
// Every subcommand builds the same pieces the terminal UI uses: the config
// loader, the HTTP client, a state.Store and, where the participant pair
// matters, the persistence bridge. Results are printed as a table, JSON or
// YAML according to --output.
//
// Usage:
//
//	necx                               Start the terminal UI
//	necx users list [--search S]       List the user directory
//	necx users create NAME             Create a user
//	necx messages list --as A --with B List a conversation
//	necx messages send --as A --to B   Send a message
//	necx messages export --format html Export a conversation
//	necx chat --as A --with B          Line-mode chat
//	necx select --as A --with B        Persist the participant pair
//	necx config show|path|init         Inspect the configuration
//	necx health                        Probe the backend
package cli
