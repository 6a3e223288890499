// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat contains the data structures for chats and messages.
package chat

import (
	"strings"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// PART TYPE
// =============================================================================

// Part kinds understood by the renderer. Parts with any other type round-trip
// through serialization untouched and are skipped when assembling the body.
const (
	PartText      = "text"
	PartStepStart = "step-start"
)

// Part is one ordered content fragment of a message. Only text parts carry
// a value; unknown kinds are preserved opaquely.
type Part struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// TextPart creates a text content fragment.
func TextPart(text string) Part {
	return Part{Type: PartText, Text: text}
}

// StepStartPart creates a step boundary marker fragment.
func StepStartPart() Part {
	return Part{Type: PartStepStart}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single turn in a chat. Parts order is display order;
// the rendered body is the concatenation of all text fragments.
type Message struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// NewUserMessage creates a user message with a fresh ID carrying a step
// marker followed by a single text fragment.
func NewUserMessage(text string) Message {
	return Message{
		ID:    NewID(),
		Role:  RoleUser,
		Parts: []Part{StepStartPart(), TextPart(text)},
	}
}

// NewAssistantMessage creates an assistant message from assembled parts.
// An empty id is replaced with a fresh one.
func NewAssistantMessage(id string, parts []Part) Message {
	if id == "" {
		id = NewID()
	}
	return Message{
		ID:    id,
		Role:  RoleAssistant,
		Parts: parts,
	}
}

// Body returns the rendered message body: the concatenation of all text
// fragment values in part order. Non-text fragments are ignored.
func (m Message) Body() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if p.Type == PartText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// LastFragmentText returns the text of the literal last fragment, or the
// empty string when the message is empty or ends with a non-text fragment.
func (m Message) LastFragmentText() string {
	if len(m.Parts) == 0 {
		return ""
	}
	return m.Parts[len(m.Parts)-1].Text
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	out := m
	out.Parts = make([]Part, len(m.Parts))
	copy(out.Parts, m.Parts)
	return out
}

// IsEmpty returns true if the message renders to no text.
func (m Message) IsEmpty() bool {
	return m.Body() == ""
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// NewID creates an opaque unique identifier for chats and messages.
func NewID() string {
	return uuid.NewString()
}
