// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// PERSISTED ENVELOPE
// =============================================================================

// SchemaVersion is the current persisted-record version. Bump when a field
// change needs a migration on rehydrate.
const SchemaVersion = 0

// Namespace keys for the key-value adapter. Fixed per store.
const (
	PrefsKey = "global-store"
	ChatsKey = "chat-store"
)

// envelope is the persisted record shape: the store's field set wrapped
// with a version tag.
type envelope struct {
	State   json.RawMessage `json:"state"`
	Version int             `json:"version"`
}

// marshalEnvelope serializes state into a versioned envelope.
func marshalEnvelope(state any) (string, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}
	data, err := json.Marshal(envelope{State: raw, Version: SchemaVersion})
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}
	return string(data), nil
}

// unmarshalEnvelope parses a persisted envelope into state. Any parse
// failure is returned so callers can fall back to default state; partial
// decoding is not attempted.
func unmarshalEnvelope(payload string, state any) error {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return fmt.Errorf("parse envelope: %w", err)
	}
	if len(env.State) == 0 {
		return fmt.Errorf("parse envelope: missing state")
	}
	if err := json.Unmarshal(env.State, state); err != nil {
		return fmt.Errorf("parse state: %w", err)
	}
	return nil
}
