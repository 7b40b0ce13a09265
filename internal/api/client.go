// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the djinn daemon's
// Ollama-compatible API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the daemon client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeTransport
	ErrTypeProtocol
	ErrTypeValidation
	ErrTypeNotFound
	ErrTypeTimeout
)

// Sentinel errors for easy checking.
var (
	ErrNotRunning    = &ClientError{Type: ErrTypeTransport, Message: "daemon is not running"}
	ErrTimeout       = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrModelNotFound = &ClientError{Type: ErrTypeNotFound, Message: "model not found"}
)

// IsNotFound checks if an error is a model not found error.
func IsNotFound(err error) bool {
	return hasType(err, ErrTypeNotFound)
}

// IsTransport checks if an error indicates the daemon is unreachable.
func IsTransport(err error) bool {
	return hasType(err, ErrTypeTransport)
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	return hasType(err, ErrTypeTimeout)
}

// IsProtocol checks if an error is a malformed-stream error.
func IsProtocol(err error) bool {
	return hasType(err, ErrTypeProtocol)
}

// IsValidation checks if an error was rejected before any network call.
func IsValidation(err error) bool {
	return hasType(err, ErrTypeValidation)
}

func hasType(err error, t ErrorType) bool {
	var clientErr *ClientError
	return errors.As(err, &clientErr) && clientErr.Type == t
}

// remoteError maps a daemon-reported error string onto the taxonomy.
func remoteError(msg string) *ClientError {
	if strings.Contains(msg, "not found") {
		return &ClientError{Type: ErrTypeNotFound, Message: msg}
	}
	return &ClientError{Type: ErrTypeProtocol, Message: msg}
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the daemon client.
type ClientConfig struct {
	// BaseURL is the daemon API base URL (default: http://127.0.0.1:11434)
	// Note: Uses explicit IPv4 address instead of localhost to avoid IPv6 resolution issues on Windows
	BaseURL string

	// Timeout for non-streaming requests (default: 30s)
	Timeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL: "http://127.0.0.1:11434",
		Timeout: 30 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the daemon API.
// It provides methods for health checks, model management, model lifecycle
// operations, and streaming chat/generate.
//
// The Client is thread-safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client

	// Streaming requests run without a client timeout; lifetime is bounded
	// by the request context instead.
	streamClient *http.Client
}

// NewClient creates a new daemon client. A nil config or zero fields fall
// back to defaults.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:11434"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config:       config,
		httpClient:   &http.Client{Timeout: config.Timeout},
		streamClient: &http.Client{},
	}
}

// Config returns the client configuration.
func (c *Client) Config() *ClientConfig {
	return c.config
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckRunning verifies that the daemon is reachable.
func (c *Client) CheckRunning(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL, nil)
	if err != nil {
		return &ClientError{Type: ErrTypeTransport, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ErrNotRunning
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ClientError{Type: ErrTypeTransport, Message: "unexpected status from daemon: " + resp.Status}
	}
	return nil
}

// Version returns the daemon's reported version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	var out VersionResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/version", nil, &out); err != nil {
		return "", err
	}
	return out.Version, nil
}

// =============================================================================
// MODEL OPERATIONS
// =============================================================================

// List retrieves all locally available models.
func (c *Client) List(ctx context.Context) ([]ModelSummary, error) {
	var out ListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/tags", nil, &out); err != nil {
		return nil, err
	}
	return out.Models, nil
}

// Show retrieves details for a specific model, including its Modelfile.
func (c *Client) Show(ctx context.Context, name string) (*ShowResponse, error) {
	var out ShowResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/show", ShowRequest{Model: name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a local model.
func (c *Client) Delete(ctx context.Context, name string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/delete", DeleteRequest{Model: name}, nil)
}

// =============================================================================
// MODEL LIFECYCLE STREAMS
// =============================================================================

// Pull downloads a model from the registry, emitting Progress events and a
// final Done. A returned error means no terminal Done was emitted.
func (c *Client) Pull(ctx context.Context, name string, emit func(StreamEvent)) error {
	body, err := c.openStream(ctx, "/api/pull", PullRequest{Model: name, Stream: true})
	if err != nil {
		return err
	}
	defer body.Close()
	return decodeProgressStream(ctx, body, emit)
}

// Create builds a model from a create request, emitting Progress events and
// a final Done. Quantization requests flow through the same endpoint.
func (c *Client) Create(ctx context.Context, req *CreateRequest, emit func(StreamEvent)) error {
	body, err := c.openStream(ctx, "/api/create", req)
	if err != nil {
		return err
	}
	defer body.Close()
	return decodeProgressStream(ctx, body, emit)
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// ChatStream sends a streaming chat request, emitting one Token event per
// content line and a final Done with statistics.
func (c *Client) ChatStream(ctx context.Context, req *ChatRequest, emit func(StreamEvent)) error {
	req.Stream = true
	body, err := c.openStream(ctx, "/api/chat", req)
	if err != nil {
		return err
	}
	defer body.Close()
	return decodeChatStream(ctx, body, emit)
}

// Chat sends a chat request and returns the complete response (non-streaming).
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*ChatChunk, error) {
	req.Stream = false
	var out ChatChunk
	if err := c.doJSON(ctx, http.MethodPost, "/api/chat", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateStream sends a streaming generate request. Tokens arrive in the
// response field rather than a message object; the event shape is the same.
func (c *Client) GenerateStream(ctx context.Context, req *GenerateRequest, emit func(StreamEvent)) error {
	req.Stream = true
	body, err := c.openStream(ctx, "/api/generate", req)
	if err != nil {
		return err
	}
	defer body.Close()
	return decodeChatStream(ctx, body, emit)
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// doJSON performs a non-streaming request and decodes the response into out
// when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	req, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ClientError{Type: ErrTypeProtocol, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// openStream issues a streaming POST and hands back the response body. The
// caller owns the body; closing it aborts the stream and the connection.
func (c *Client) openStream(ctx context.Context, path string, payload any) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}

	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &ClientError{Type: ErrTypeValidation, Message: "failed to marshal request", Cause: err}
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeTransport, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// checkStatus maps a non-200 response onto the error taxonomy, preferring
// the daemon's own error message when the body carries one.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	if resp.StatusCode == http.StatusNotFound {
		var probe struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&probe); err == nil && probe.Error != "" {
			return &ClientError{Type: ErrTypeNotFound, Message: probe.Error}
		}
		return ErrModelNotFound
	}

	var probe struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&probe); err == nil && probe.Error != "" {
		return &ClientError{Type: ErrTypeProtocol, Message: probe.Error}
	}
	return &ClientError{Type: ErrTypeProtocol, Message: "request failed: " + resp.Status}
}

func transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	return &ClientError{Type: ErrTypeTransport, Message: "daemon unreachable", Cause: err}
}
