// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the local HTTP proxy in front of the gateway.
//
// Endpoints:
//   - POST /v1/chat   - Streaming chat proxy (credential supplied per request)
//   - GET  /v1/models - List the selectable model catalog
//   - GET  /health    - Health check
//
// The proxy lets other devices on the local network use this machine's
// gateway access without embedding a credential in each client: the
// request carries the credential, nothing is stored server-side.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/jeranaias/gatechat/internal/gateway"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultPort is the default port for the HTTP server.
	DefaultPort = 8787

	// MaxRequestBodySize is the maximum request body size (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// MaxMessageCount is the maximum number of messages in a request.
	MaxMessageCount = 100

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout = 5 * time.Second
)

// validRoles is the set of acceptable message roles.
var validRoles = map[string]bool{
	"user":      true,
	"assistant": true,
	"system":    true,
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the HTTP proxy server.
type Server struct {
	port       int
	router     *http.ServeMux
	server     *http.Server
	gatewayURL string
	logger     *log.Logger

	mu sync.RWMutex
}

// NewServer creates a server on the given port (0 means DefaultPort).
func NewServer(port int) *Server {
	if port == 0 {
		port = DefaultPort
	}

	s := &Server{
		port:       port,
		router:     http.NewServeMux(),
		gatewayURL: gateway.DefaultGatewayURL,
		logger:     log.Default(),
	}
	s.setupRoutes()
	return s
}

// WithGatewayURL points the proxy at a different gateway base URL.
func (s *Server) WithGatewayURL(url string) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gatewayURL = url
	return s
}

// WithLogger sets the request logger.
func (s *Server) WithLogger(logger *log.Logger) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
	return s
}

// Port returns the server port.
func (s *Server) Port() int {
	return s.port
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("POST /v1/chat", s.handleChat)
	s.router.HandleFunc("GET /v1/models", s.handleModels)
	s.router.HandleFunc("GET /health", s.handleHealth)
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	s.mu.RLock()
	logger := s.logger
	s.mu.RUnlock()

	return Chain(s.router,
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		RateLimitMiddleware(NewIPRateLimiter(5, 10)),
	)
}

// Start runs the server until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// ============================================================================
// REQUEST TYPES
// ============================================================================

// chatProxyRequest is the POST /v1/chat body: the conversation, the
// selected model, and the caller's own gateway credential.
type chatProxyRequest struct {
	Messages []gateway.WireMessage `json:"messages"`
	Model    string                `json:"selectedModel"`
	APIKey   string                `json:"apiKey"`
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error with the given status.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg})
}

// validateChatRequest enforces body shape limits.
func validateChatRequest(req *chatProxyRequest) error {
	if req.APIKey == "" {
		return fmt.Errorf("apiKey is required")
	}
	if req.Model == "" {
		return fmt.Errorf("selectedModel is required")
	}
	if len(req.Messages) == 0 {
		return fmt.Errorf("messages must not be empty")
	}
	if len(req.Messages) > MaxMessageCount {
		return fmt.Errorf("too many messages: %d (max %d)", len(req.Messages), MaxMessageCount)
	}
	for i, m := range req.Messages {
		if !validRoles[m.Role] {
			return fmt.Errorf("invalid role %q at message %d", m.Role, i)
		}
	}
	return nil
}

// ============================================================================
// HANDLERS
// ============================================================================

// handleChat proxies a streaming chat completion, re-emitting gateway
// deltas as SSE events to the caller.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	var req chatProxyRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validateChatRequest(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	s.mu.RLock()
	client := gateway.NewClient(req.APIKey).WithBaseURL(s.gatewayURL)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	streamed := false
	err = client.ChatStream(r.Context(), req.Model, req.Messages, func(chunk gateway.StreamChunk) {
		raw, err := json.Marshal(chunk)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", raw)
		flusher.Flush()
		streamed = true
	})

	if err != nil {
		// Headers may already be on the wire; surface the failure as an
		// SSE error event rather than a status change.
		if !streamed {
			writeError(w, upstreamStatus(err), err.Error())
			return
		}
		payload, _ := json.Marshal(errorResponse{Error: err.Error()})
		fmt.Fprintf(w, "event: error\ndata: %s\n\n", payload)
		flusher.Flush()
		return
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// upstreamStatus maps gateway client errors to proxy response codes.
func upstreamStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, gateway.ErrAuthFailed):
		return http.StatusUnauthorized
	case errors.Is(err, gateway.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, gateway.ErrModelNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

// handleModels returns the selectable catalog.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"models":  gateway.Models(),
		"default": gateway.DefaultModel(),
	})
}

// handleHealth returns a liveness response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
