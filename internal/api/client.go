// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the messaging backend's REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/necx/necx-tui/internal/model"
)

// DefaultBaseURL is the backend used when nothing else is configured.
const DefaultBaseURL = "http://localhost:4000/api"

// RequestIDHeader carries a per-request id that also appears in debug logs.
const RequestIDHeader = "X-Request-ID"

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the API client.
type ClientConfig struct {
	// BaseURL is the API root including the /api prefix (default: http://localhost:4000/api)
	BaseURL string

	// Timeout bounds each request when non-zero. Zero means no client-side
	// timeout; the caller's context is the only deadline.
	Timeout time.Duration

	// RequestsPerSecond throttles outgoing calls when positive (default: 0, unlimited)
	RequestsPerSecond float64

	// UserAgent is sent with every request when set
	UserAgent string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:   DefaultBaseURL,
		UserAgent: "necx-tui",
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the messaging backend.
//
// The Client is safe for concurrent use.
type Client struct {
	config     *ClientConfig
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a client with the default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client with a custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	c := &Client{
		config:  config,
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: zerolog.Nop(),
	}
	if config.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}
	return c
}

// WithLogger sets the logger used for per-request debug lines.
func (c *Client) WithLogger(logger *zerolog.Logger) *Client {
	if logger != nil {
		c.logger = logger.With().Str("component", "api").Logger()
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// REQUEST PIPELINE
// =============================================================================

// do performs one request and decodes the envelope's data into out.
// out may be nil when the caller does not need the payload.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	env, err := c.roundTrip(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || !env.hasData() {
		return nil
	}
	return decodeData(env, out)
}

// doRecord is do for calls that must return one record. A success reply
// without data is not a confirmation and fails as an envelope error.
func (c *Client) doRecord(ctx context.Context, method, path string, body, out any) error {
	env, err := c.roundTrip(ctx, method, path, body)
	if err != nil {
		return err
	}
	if !env.hasData() {
		return &ClientError{Type: ErrTypeEnvelope, Message: "response has no data"}
	}
	return decodeData(env, out)
}

func decodeData(env *Envelope, out any) error {
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &ClientError{Type: ErrTypeDecode, Message: "failed to decode response data", Cause: err}
	}
	return nil
}

// roundTrip sends the request and returns the decoded envelope.
func (c *Client) roundTrip(ctx context.Context, method, path string, body any) (*Envelope, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &ClientError{Type: ErrTypeRequest, Message: "failed to marshal request", Cause: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeRequest, Message: "failed to create request", Cause: err}
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &ClientError{Type: ErrTypeConnection, Message: "request canceled while throttled", Cause: err}
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Str("request_id", requestID).Str("method", method).Str("path", path).Err(err).Msg("request failed")
		return nil, &ClientError{Type: ErrTypeConnection, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused; the body is never surfaced.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, newStatusError(resp.StatusCode)
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &ClientError{Type: ErrTypeDecode, Message: "failed to decode response", Cause: err}
	}
	if env.failed() {
		return nil, &ClientError{Type: ErrTypeEnvelope, Message: env.reason()}
	}
	return &env, nil
}

// =============================================================================
// USER OPERATIONS
// =============================================================================

// ListUsers returns every user. A missing data field yields an empty list.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	if err := c.do(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// GetUser returns one user by id.
func (c *Client) GetUser(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := c.doRecord(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser creates a user and returns the backend's record.
func (c *Client) CreateUser(ctx context.Context, input UserInput) (*model.User, error) {
	var user model.User
	if err := c.doRecord(ctx, http.MethodPost, "/users", input, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser replaces a user's fields.
func (c *Client) UpdateUser(ctx context.Context, id string, input UserInput) (*model.User, error) {
	var user model.User
	if err := c.doRecord(ctx, http.MethodPut, "/users/"+url.PathEscape(id), input, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil)
}

// =============================================================================
// MESSAGE OPERATIONS
// =============================================================================

// ListMessages returns every message the backend holds.
func (c *Client) ListMessages(ctx context.Context) ([]model.Message, error) {
	messages := []model.Message{}
	if err := c.do(ctx, http.MethodGet, "/messages", nil, &messages); err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []model.Message{}
	}
	return messages, nil
}

// MessagesBetween returns the messages exchanged by two users, by name.
func (c *Client) MessagesBetween(ctx context.Context, user1, user2 string) ([]model.Message, error) {
	query := url.Values{}
	query.Set("user1", user1)
	query.Set("user2", user2)

	messages := []model.Message{}
	if err := c.do(ctx, http.MethodGet, "/messages/between?"+query.Encode(), nil, &messages); err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []model.Message{}
	}
	return messages, nil
}

// GetMessage returns one message by id.
func (c *Client) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	var msg model.Message
	if err := c.doRecord(ctx, http.MethodGet, "/messages/"+url.PathEscape(id), nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// CreateMessage sends a message and returns the stored record.
func (c *Client) CreateMessage(ctx context.Context, input MessageInput) (*model.Message, error) {
	var msg model.Message
	if err := c.doRecord(ctx, http.MethodPost, "/messages", input, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// UpdateMessage edits a message's content and returns the stored record.
func (c *Client) UpdateMessage(ctx context.Context, id string, update MessageUpdate) (*model.Message, error) {
	var msg model.Message
	if err := c.doRecord(ctx, http.MethodPut, "/messages/"+url.PathEscape(id), update, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteMessage removes a message.
func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/messages/"+url.PathEscape(id), nil, nil)
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// Health probes the backend's liveness endpoint.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	env, err := c.roundTrip(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}
	return &HealthStatus{Message: env.Message, Data: env.Data}, nil
}
