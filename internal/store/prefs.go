// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"sync"

	"github.com/jeranaias/gatechat/internal/gateway"
	"github.com/jeranaias/gatechat/internal/kv"
	"github.com/jeranaias/gatechat/internal/tasks"
)

// =============================================================================
// GLOBAL PREFERENCES
// =============================================================================

// Prefs is the singleton preferences record.
//
// ActiveChatID may reference a chat that no longer exists; readers must
// tolerate a dangling id. An empty APICredential means "not configured".
type Prefs struct {
	ActiveChatID  string         `json:"activeChatId"`
	SelectedModel *gateway.Model `json:"selectedModel,omitempty"`
	APICredential string         `json:"apiKey"`
}

// PrefsStore owns the preferences record. Mutations replace exactly one
// field, notify subscribers synchronously, and schedule a background write
// of the full record to the secure adapter. In-memory state stays
// authoritative when a write fails.
type PrefsStore struct {
	mu    sync.RWMutex
	state Prefs
	subs  []func(Prefs)

	adapter kv.Store
	queue   *tasks.Queue
}

// NewPrefsStore creates a preferences store persisting through adapter.
func NewPrefsStore(adapter kv.Store, queue *tasks.Queue) *PrefsStore {
	return &PrefsStore{adapter: adapter, queue: queue}
}

// Rehydrate loads persisted preferences, replacing in-memory state field
// by field. Missing or malformed payloads leave the default state in
// place and never fail the caller.
func (s *PrefsStore) Rehydrate(ctx context.Context) {
	payload, ok, err := s.adapter.Get(ctx, PrefsKey)
	if err != nil || !ok {
		return
	}

	var state Prefs
	if err := unmarshalEnvelope(payload, &state); err != nil {
		return
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.notify()
}

// =============================================================================
// READS
// =============================================================================

// Get returns the current preferences.
func (s *PrefsStore) Get() Prefs {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn to run synchronously after every mutation with
// the new full state. Subscriptions last for the process lifetime.
func (s *PrefsStore) Subscribe(fn func(Prefs)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// =============================================================================
// MUTATIONS
// =============================================================================

// SetActiveChatID records the chat targeted by navigation.
func (s *PrefsStore) SetActiveChatID(id string) {
	s.mu.Lock()
	s.state.ActiveChatID = id
	s.mu.Unlock()

	s.notify()
	s.persist()
}

// SetSelectedModel records the model used for new requests.
func (s *PrefsStore) SetSelectedModel(model gateway.Model) {
	s.mu.Lock()
	m := model
	s.state.SelectedModel = &m
	s.mu.Unlock()

	s.notify()
	s.persist()
}

// ClearSelectedModel drops the model choice back to the unset state.
func (s *PrefsStore) ClearSelectedModel() {
	s.mu.Lock()
	s.state.SelectedModel = nil
	s.mu.Unlock()

	s.notify()
	s.persist()
}

// SetAPICredential records the gateway credential. Empty clears it.
func (s *PrefsStore) SetAPICredential(credential string) {
	s.mu.Lock()
	s.state.APICredential = credential
	s.mu.Unlock()

	s.notify()
	s.persist()
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// persist schedules a background write of the full record. Failures land
// in the queue's last-error slot and are not surfaced to callers.
func (s *PrefsStore) persist() {
	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()

	payload, err := marshalEnvelope(state)
	if err != nil {
		return
	}
	_, _ = s.queue.Enqueue("persist preferences", func(ctx context.Context) error {
		return s.adapter.Set(ctx, PrefsKey, payload)
	})
}

// LastPersistErr exposes the most recent swallowed persistence failure
// for diagnostics.
func (s *PrefsStore) LastPersistErr() error {
	return s.queue.LastErr()
}

// notify runs subscribers outside the state lock.
func (s *PrefsStore) notify() {
	s.mu.RLock()
	state := s.state
	subs := make([]func(Prefs), len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(state)
	}
}
