// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway provides the client for the hosted AI model gateway.
//
// The gateway fronts multiple LLM providers behind a single
// OpenAI-compatible API; one bearer credential covers every model in the
// catalog. This package implements the streaming chat client and the
// credential verification probe.
package gateway

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/gatechat/internal/chat"
)

// Configuration constants for the gateway API.
const (
	// DefaultGatewayURL is the base URL for the hosted gateway.
	DefaultGatewayURL = "https://ai-gateway.vercel.sh/v1"

	// DefaultTimeout is the default timeout for non-streaming requests.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024
)

// sharedStreamingClient is used for streaming requests (no timeout,
// context-controlled). Connection pooling is shared across all requests.
var sharedStreamingClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
}

// Error variables for common gateway errors.
var (
	// ErrNotConfigured indicates the credential is not set.
	ErrNotConfigured = errors.New("gateway credential not configured")

	// ErrAuthFailed indicates an invalid or expired credential.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrModelNotFound indicates the requested model does not exist.
	ErrModelNotFound = errors.New("model not found")
)

// APIError represents an error response from the gateway.
type APIError struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("gateway error (HTTP %d): %s", e.Status, e.Message)
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// WireMessage is one flattened turn on the wire: role plus assembled body.
type WireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FlattenHistory converts chat messages to wire shape, dropping turns
// that render to no text.
func FlattenHistory(messages []chat.Message) []WireMessage {
	out := make([]WireMessage, 0, len(messages))
	for _, m := range messages {
		body := m.Body()
		if body == "" {
			continue
		}
		out = append(out, WireMessage{Role: m.Role.String(), Content: body})
	}
	return out
}

// chatRequest is the chat completions request body.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []WireMessage `json:"messages"`
	Stream    bool          `json:"stream"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

// chatResponse is the non-streaming chat completions response body.
type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      WireMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// apiErrorResponse is the error response shape.
type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client communicates with the gateway using a bearer credential.
type Client struct {
	credential string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a gateway client. An empty credential still yields a
// usable client; requests fail with ErrNotConfigured.
func NewClient(credential string) *Client {
	return &Client{
		credential: strings.TrimSpace(credential),
		baseURL:    DefaultGatewayURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

// WithTimeout sets the non-streaming request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// IsConfigured reports whether a credential is present.
func (c *Client) IsConfigured() bool {
	return c.credential != ""
}

// setHeaders applies auth and content headers to a request.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.credential)
	req.Header.Set("Content-Type", "application/json")
}

// =============================================================================
// NON-STREAMING CHAT
// =============================================================================

// Complete performs a single non-streaming chat completion.
func (c *Client) Complete(ctx context.Context, model string, messages []WireMessage) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(chatRequest{Model: model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", c.handleErrorResponse(resp.StatusCode, respBody)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return parsed.Choices[0].Message.Content, nil
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

// handleErrorResponse maps an HTTP error status to a typed error.
func (c *Client) handleErrorResponse(status int, body []byte) error {
	var apiErr apiErrorResponse
	message := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAuthFailed, message)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrModelNotFound, message)
	default:
		return &APIError{Code: apiErr.Error.Code, Message: message, Status: status}
	}
}
