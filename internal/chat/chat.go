// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat contains the data structures for chats and messages.
package chat

// =============================================================================
// CHAT TYPE
// =============================================================================

// Chat holds one conversation: ordered messages plus metadata.
//
// Title is empty until the first user message is sent and Description is
// empty until the first assistant turn completes; both are set exactly once
// (first-write-wins, enforced by the session store).
type Chat struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Messages    []Message `json:"messages"`
}

// New creates an empty chat with a generated ID.
func New() Chat {
	return Chat{
		ID:       NewID(),
		Messages: []Message{},
	}
}

// Empty returns true when the chat has no messages. Empty chats are
// disposable: the menu screen deletes them when navigating away.
func (c Chat) Empty() bool {
	return len(c.Messages) == 0
}

// DisplayTitle returns the title or a placeholder for unused chats.
func (c Chat) DisplayTitle() string {
	if c.Title == "" {
		return "New Chat"
	}
	return c.Title
}

// DisplayDescription returns the description or a placeholder.
func (c Chat) DisplayDescription() string {
	if c.Description == "" {
		return "..."
	}
	return c.Description
}

// Clone returns a deep copy of the chat. Store reads hand out clones so
// callers can never alias the store's internal state.
func (c Chat) Clone() Chat {
	clone := c
	clone.Messages = make([]Message, len(c.Messages))
	for i, m := range c.Messages {
		mc := m
		mc.Parts = append([]Part(nil), m.Parts...)
		clone.Messages[i] = mc
	}
	return clone
}
