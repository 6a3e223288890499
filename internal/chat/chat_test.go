// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"encoding/json"
	"testing"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("Hi there")

	if msg.ID == "" {
		t.Error("expected non-empty ID")
	}
	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want %q", msg.Role, RoleUser)
	}
	if len(msg.Parts) != 2 {
		t.Fatalf("Parts count = %d, want 2", len(msg.Parts))
	}
	if msg.Parts[0].Type != PartStepStart {
		t.Errorf("first part type = %q, want %q", msg.Parts[0].Type, PartStepStart)
	}
	if msg.Body() != "Hi there" {
		t.Errorf("Body() = %q, want %q", msg.Body(), "Hi there")
	}
}

func TestMessage_Body_ConcatenatesTextParts(t *testing.T) {
	tests := []struct {
		name  string
		parts []Part
		want  string
	}{
		{"single text", []Part{TextPart("hello")}, "hello"},
		{"multiple texts in order", []Part{TextPart("a"), TextPart("b"), TextPart("c")}, "abc"},
		{"non-text parts skipped", []Part{StepStartPart(), TextPart("x"), {Type: "reasoning", Text: "hidden"}}, "x"},
		{"no parts", nil, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := Message{Parts: tc.parts}
			if got := m.Body(); got != tc.want {
				t.Errorf("Body() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMessage_LastFragmentText(t *testing.T) {
	m := Message{Parts: []Part{TextPart("first"), StepStartPart(), TextPart("last")}}
	if got := m.LastFragmentText(); got != "last" {
		t.Errorf("LastFragmentText() = %q, want %q", got, "last")
	}

	// The read is literal: a trailing non-text fragment yields "", even
	// when an earlier text fragment exists.
	trailing := Message{Parts: []Part{TextPart("body"), StepStartPart()}}
	if got := trailing.LastFragmentText(); got != "" {
		t.Errorf("LastFragmentText() = %q, want empty for trailing marker", got)
	}

	empty := Message{Parts: []Part{StepStartPart()}}
	if got := empty.LastFragmentText(); got != "" {
		t.Errorf("LastFragmentText() = %q, want empty", got)
	}

	none := Message{}
	if got := none.LastFragmentText(); got != "" {
		t.Errorf("LastFragmentText() = %q, want empty for no parts", got)
	}
}

func TestMessage_UnknownPartsRoundTrip(t *testing.T) {
	in := Message{
		ID:   NewID(),
		Role: RoleAssistant,
		Parts: []Part{
			{Type: "step-start"},
			{Type: "text", Text: "answer"},
		},
	}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var out Message
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if len(out.Parts) != 2 || out.Parts[0].Type != "step-start" {
		t.Errorf("parts did not survive round trip: %+v", out.Parts)
	}
	if out.Body() != "answer" {
		t.Errorf("Body() = %q, want %q", out.Body(), "answer")
	}
}

// =============================================================================
// CHAT TESTS
// =============================================================================

func TestNew_EmptyChat(t *testing.T) {
	c := New()

	if c.ID == "" {
		t.Error("expected generated ID")
	}
	if c.Title != "" || c.Description != "" {
		t.Error("new chat should have empty title and description")
	}
	if !c.Empty() {
		t.Error("new chat should be empty")
	}
	if c.DisplayTitle() != "New Chat" {
		t.Errorf("DisplayTitle() = %q, want %q", c.DisplayTitle(), "New Chat")
	}
	if c.DisplayDescription() != "..." {
		t.Errorf("DisplayDescription() = %q, want %q", c.DisplayDescription(), "...")
	}
}

func TestChat_CloneIsDeep(t *testing.T) {
	c := New()
	c.Messages = append(c.Messages, NewUserMessage("original"))

	clone := c.Clone()
	clone.Messages[0].Parts[1].Text = "mutated"

	if c.Messages[0].Parts[1].Text != "original" {
		t.Error("mutating a clone leaked into the source chat")
	}
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
