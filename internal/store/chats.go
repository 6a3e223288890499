// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"sync"

	"github.com/jeranaias/gatechat/internal/chat"
	"github.com/jeranaias/gatechat/internal/kv"
	"github.com/jeranaias/gatechat/internal/tasks"
)

// =============================================================================
// CHAT SESSION STORE
// =============================================================================

// chatsState is the persisted field set of the chat store.
type chatsState struct {
	Chats []chat.Chat `json:"chats"`
}

// ChatStore owns the chat collection: newest-created-first, ids unique,
// messages append-only. All mutators update in-memory state synchronously
// and schedule a background write of the full collection, so a read issued
// immediately after a mutation always observes the new state.
type ChatStore struct {
	mu    sync.RWMutex
	chats []chat.Chat
	subs  []func()

	adapter kv.Store
	queue   *tasks.Queue
}

// NewChatStore creates a chat store persisting through adapter.
func NewChatStore(adapter kv.Store, queue *tasks.Queue) *ChatStore {
	return &ChatStore{adapter: adapter, queue: queue}
}

// Rehydrate loads the persisted collection. Missing or malformed payloads
// leave the store empty and never fail the caller.
func (s *ChatStore) Rehydrate(ctx context.Context) {
	payload, ok, err := s.adapter.Get(ctx, ChatsKey)
	if err != nil || !ok {
		return
	}

	var state chatsState
	if err := unmarshalEnvelope(payload, &state); err != nil {
		return
	}

	s.mu.Lock()
	s.chats = state.Chats
	s.mu.Unlock()
	s.notify()
}

// =============================================================================
// READS
// =============================================================================

// List returns the current collection, newest-created-first. The result
// is a deep copy; mutating it does not affect the store.
func (s *ChatStore) List() []chat.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]chat.Chat, len(s.chats))
	for i := range s.chats {
		out[i] = s.chats[i].Clone()
	}
	return out
}

// Find returns a deep copy of the chat with the given id.
func (s *ChatStore) Find(id string) (chat.Chat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.chats {
		if s.chats[i].ID == id {
			return s.chats[i].Clone(), true
		}
	}
	return chat.Chat{}, false
}

// Len returns the number of chats.
func (s *ChatStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chats)
}

// Subscribe registers fn to run synchronously after every mutation.
func (s *ChatStore) Subscribe(fn func()) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Create prepends a fresh empty chat and returns its id.
func (s *ChatStore) Create() string {
	c := chat.New()

	s.mu.Lock()
	s.chats = append([]chat.Chat{c}, s.chats...)
	s.mu.Unlock()

	s.notify()
	s.persist()
	return c.ID
}

// SetTitle sets the title of the matching chat, only if it is still
// unset. Later calls and absent ids are no-ops.
func (s *ChatStore) SetTitle(id, title string) {
	s.updateChat(id, func(c *chat.Chat) bool {
		if c.Title != "" {
			return false
		}
		c.Title = title
		return true
	})
}

// SetDescription sets the description of the matching chat, only if it
// is still unset. Later calls and absent ids are no-ops.
func (s *ChatStore) SetDescription(id, description string) {
	s.updateChat(id, func(c *chat.Chat) bool {
		if c.Description != "" {
			return false
		}
		c.Description = description
		return true
	})
}

// AppendMessage appends msg to the matching chat. Absent ids are a no-op.
func (s *ChatStore) AppendMessage(id string, msg chat.Message) {
	s.updateChat(id, func(c *chat.Chat) bool {
		c.Messages = append(c.Messages, msg.Clone())
		return true
	})
}

// Remove deletes the matching chat. Absent ids are a no-op. Deletion is
// immediate and irreversible.
func (s *ChatStore) Remove(id string) {
	s.mu.Lock()
	removed := false
	for i := range s.chats {
		if s.chats[i].ID == id {
			s.chats = append(s.chats[:i], s.chats[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()

	if removed {
		s.notify()
		s.persist()
	}
}

// updateChat applies fn to the chat matching id under the write lock.
// fn reports whether it changed anything; only changes notify and persist.
func (s *ChatStore) updateChat(id string, fn func(*chat.Chat) bool) {
	s.mu.Lock()
	changed := false
	for i := range s.chats {
		if s.chats[i].ID == id {
			changed = fn(&s.chats[i])
			break
		}
	}
	s.mu.Unlock()

	if changed {
		s.notify()
		s.persist()
	}
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// persist schedules a background write of the full collection, capturing
// a snapshot so later mutations cannot leak into an in-flight write.
func (s *ChatStore) persist() {
	snapshot := chatsState{Chats: s.List()}

	payload, err := marshalEnvelope(snapshot)
	if err != nil {
		return
	}
	_, _ = s.queue.Enqueue("persist chats", func(ctx context.Context) error {
		return s.adapter.Set(ctx, ChatsKey, payload)
	})
}

// LastPersistErr exposes the most recent swallowed persistence failure
// for diagnostics.
func (s *ChatStore) LastPersistErr() error {
	return s.queue.LastErr()
}

func (s *ChatStore) notify() {
	s.mu.RLock()
	subs := make([]func(), len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()

	for _, fn := range subs {
		fn()
	}
}
