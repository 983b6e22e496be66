// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the messaging backend's REST API.
//
// Every call goes through a single request method that sets JSON headers,
// decodes the {success, data, message} envelope, and turns any status
// outside the 2xx range into a *ClientError carrying the numeric status.
// The client makes exactly one attempt per call. It never retries, and the
// only deadline is the caller's context unless ClientConfig.Timeout is set.
//
// # Key Types
//
//   - Client: REST client for users, messages, and the health probe
//   - ClientConfig: Base URL, optional timeout, optional request rate limit
//   - ClientError: Classified failure (connection, status, decode, envelope)
//
// # Usage
//
//	client := api.NewClientWithConfig(&api.ClientConfig{
//	    BaseURL: "http://localhost:4000/api",
//	})
//	users, err := client.ListUsers(ctx)
//	if api.IsStatus(err, http.StatusNotFound) {
//	    // ...
//	}
package api
