// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jeranaias/gatechat/internal/chat"
	"github.com/jeranaias/gatechat/internal/tasks"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

// memStore is an in-memory key-value adapter for tests.
type memStore struct {
	mu   sync.Mutex
	data map[string]string
	// failWrites makes every Set return an error
	failWrites bool
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (m *memStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return errors.New("simulated write failure")
	}
	m.data[key] = value
	return nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memStore) Close() error { return nil }

// newChatStore wires a chat store to a fresh adapter and queue.
func newChatStore(t *testing.T) (*ChatStore, *memStore, *tasks.Queue) {
	t.Helper()
	adapter := newMemStore()
	queue := tasks.NewQueue(64)
	t.Cleanup(func() { queue.Close() })
	return NewChatStore(adapter, queue), adapter, queue
}

// =============================================================================
// COLLECTION TESTS
// =============================================================================

func TestChatStore_CreatePrependsWithUniqueIDs(t *testing.T) {
	s, _, _ := newChatStore(t)

	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, s.Create())
	}

	list := s.List()
	if len(list) != 5 {
		t.Fatalf("List() has %d chats, want 5", len(list))
	}
	// Newest-created-first: last created id leads the collection.
	for i, c := range list {
		if c.ID != ids[len(ids)-1-i] {
			t.Fatalf("list[%d].ID = %q, collection not newest-first", i, c.ID)
		}
	}

	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate chat id %q", id)
		}
		seen[id] = true
	}
}

func TestChatStore_FindAfterCreate(t *testing.T) {
	s, _, _ := newChatStore(t)
	id := s.Create()

	c, ok := s.Find(id)
	if !ok {
		t.Fatal("Find should locate a freshly created chat")
	}
	if c.Title != "" || c.Description != "" || len(c.Messages) != 0 {
		t.Errorf("new chat not empty: %+v", c)
	}

	if _, ok := s.Find("no-such-id"); ok {
		t.Error("Find on unknown id should report not found")
	}
}

func TestChatStore_MutatorsIgnoreUnknownID(t *testing.T) {
	s, _, _ := newChatStore(t)
	id := s.Create()

	s.SetTitle("missing", "t")
	s.SetDescription("missing", "d")
	s.AppendMessage("missing", chat.NewUserMessage("x"))
	s.Remove("missing")

	list := s.List()
	if len(list) != 1 || list[0].ID != id {
		t.Fatalf("collection changed by operations on unknown id: %+v", list)
	}
	if c, _ := s.Find(id); c.Title != "" || len(c.Messages) != 0 {
		t.Errorf("existing chat mutated by operations on unknown id: %+v", c)
	}
}

func TestChatStore_AppendMessagePreservesOrder(t *testing.T) {
	s, _, _ := newChatStore(t)
	id := s.Create()

	m1 := chat.NewUserMessage("m1")
	m2 := chat.NewAssistantMessage("", []chat.Part{chat.TextPart("m2")})
	m3 := chat.NewUserMessage("m3")
	s.AppendMessage(id, m1)
	s.AppendMessage(id, m2)
	s.AppendMessage(id, m3)

	c, _ := s.Find(id)
	if len(c.Messages) != 3 {
		t.Fatalf("message count = %d, want 3", len(c.Messages))
	}
	for i, want := range []string{"m1", "m2", "m3"} {
		if got := c.Messages[i].Body(); got != want {
			t.Errorf("messages[%d].Body() = %q, want %q", i, got, want)
		}
	}
}

func TestChatStore_TitleAndDescriptionFirstWriteWins(t *testing.T) {
	s, _, _ := newChatStore(t)
	id := s.Create()

	s.SetTitle(id, "first title")
	s.SetTitle(id, "second title")
	s.SetDescription(id, "first description")
	s.SetDescription(id, "second description")

	c, _ := s.Find(id)
	if c.Title != "first title" {
		t.Errorf("Title = %q, later write overrode the first", c.Title)
	}
	if c.Description != "first description" {
		t.Errorf("Description = %q, later write overrode the first", c.Description)
	}
}

func TestChatStore_RemoveDeletesImmediately(t *testing.T) {
	s, _, _ := newChatStore(t)
	a := s.Create()
	b := s.Create()

	s.Remove(a)

	// In-memory state reflects the delete before any persistence settles;
	// the menu re-reads the collection synchronously after deleting.
	list := s.List()
	if len(list) != 1 || list[0].ID != b {
		t.Fatalf("List() after Remove = %+v, want only %q", list, b)
	}
	if _, ok := s.Find(a); ok {
		t.Error("removed chat still findable")
	}
}

func TestChatStore_ListReturnsCopies(t *testing.T) {
	s, _, _ := newChatStore(t)
	id := s.Create()
	s.AppendMessage(id, chat.NewUserMessage("original"))

	list := s.List()
	list[0].Title = "mutated"
	list[0].Messages[0].Parts[1].Text = "mutated"

	c, _ := s.Find(id)
	if c.Title != "" || c.Messages[0].Parts[1].Text != "original" {
		t.Error("mutating List() result leaked into the store")
	}
}

// =============================================================================
// PERSISTENCE TESTS
// =============================================================================

func TestChatStore_PersistRehydrateRoundTrip(t *testing.T) {
	s, adapter, queue := newChatStore(t)

	id := s.Create()
	s.SetTitle(id, "Hi there")
	s.SetDescription(id, "Summarized result")
	s.AppendMessage(id, chat.NewUserMessage("Hi there"))
	s.AppendMessage(id, chat.NewAssistantMessage("", []chat.Part{
		chat.StepStartPart(),
		chat.TextPart("Summarized result"),
	}))
	other := s.Create()

	if err := queue.Close(); err != nil {
		t.Fatalf("persistence failed: %v", err)
	}

	fresh := NewChatStore(adapter, tasks.NewQueue(4))
	fresh.Rehydrate(context.Background())

	list := fresh.List()
	if len(list) != 2 {
		t.Fatalf("rehydrated %d chats, want 2", len(list))
	}
	if list[0].ID != other {
		t.Errorf("rehydrated order wrong: first = %q, want %q", list[0].ID, other)
	}

	c, ok := fresh.Find(id)
	if !ok {
		t.Fatal("rehydrated store lost a chat")
	}
	if c.Title != "Hi there" || c.Description != "Summarized result" {
		t.Errorf("metadata lost in round trip: %+v", c)
	}
	if len(c.Messages) != 2 || c.Messages[1].Body() != "Summarized result" {
		t.Errorf("messages lost in round trip: %+v", c.Messages)
	}
}

func TestChatStore_RehydrateToleratesBadPayloads(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		present bool
	}{
		{"missing key", "", false},
		{"not json", "garbage{{", true},
		{"wrong shape", `[1,2,3]`, true},
		{"envelope without state", `{"version":0}`, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			adapter := newMemStore()
			if tc.present {
				adapter.data[ChatsKey] = tc.payload
			}
			queue := tasks.NewQueue(4)
			defer queue.Close()

			s := NewChatStore(adapter, queue)
			s.Rehydrate(context.Background())

			if got := s.Len(); got != 0 {
				t.Errorf("Len() = %d after bad payload, want default empty state", got)
			}
		})
	}
}

func TestChatStore_PersistFailureIsSwallowed(t *testing.T) {
	adapter := newMemStore()
	adapter.failWrites = true
	queue := tasks.NewQueue(4)

	s := NewChatStore(adapter, queue)
	id := s.Create()

	if err := queue.Close(); err == nil {
		t.Fatal("expected the write failure to land in the error slot")
	}

	// In-memory state stays authoritative.
	if _, ok := s.Find(id); !ok {
		t.Error("chat lost after a failed persistence write")
	}
	if s.LastPersistErr() == nil {
		t.Error("LastPersistErr should expose the swallowed failure")
	}
}

func TestChatStore_SubscribersRunSynchronously(t *testing.T) {
	s, _, _ := newChatStore(t)

	calls := 0
	s.Subscribe(func() { calls++ })

	id := s.Create()
	s.SetTitle(id, "t")
	s.SetTitle(id, "ignored") // no change, no notification
	s.Remove(id)

	if calls != 3 {
		t.Errorf("subscriber ran %d times, want 3", calls)
	}
}
