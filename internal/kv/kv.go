// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package kv provides the persistent key-value adapter backing the stores.
package kv

import (
	"context"
	"errors"
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is an asynchronous key-value adapter for opaque string blobs.
// Both application stores persist their full serialized state under a
// single fixed namespace key ("global-store", "chat-store").
//
// Implementations must be safe for concurrent use; the callers treat every
// operation as fire-and-forget and keep in-memory state authoritative when
// a write fails.
type Store interface {
	// Get returns the value for key, reporting whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases any underlying resources.
	Close() error
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrClosed indicates the adapter has been closed.
	ErrClosed = errors.New("kv store closed")
	// ErrInvalidKey indicates an empty or unusable namespace key.
	ErrInvalidKey = errors.New("invalid key")
)
