// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatscreen

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/gatechat/internal/chat"
	"github.com/jeranaias/gatechat/internal/config"
	"github.com/jeranaias/gatechat/internal/kv"
	"github.com/jeranaias/gatechat/internal/store"
	"github.com/jeranaias/gatechat/internal/tasks"
	"github.com/jeranaias/gatechat/internal/ui/styles"
)

func newScreen(t *testing.T) (Model, *store.ChatStore, *store.PrefsStore) {
	t.Helper()
	adapter, err := kv.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	queue := tasks.NewQueue(64)
	t.Cleanup(func() { _ = queue.Close() })
	t.Cleanup(func() { _ = adapter.Close() })

	chats := store.NewChatStore(adapter, queue)
	prefs := store.NewPrefsStore(adapter, queue)
	return New(styles.NewTheme(), config.Default(), chats, prefs), chats, prefs
}

func TestSetChat_MountsHistory(t *testing.T) {
	m, chats, _ := newScreen(t)

	id := chats.Create()
	chats.AppendMessage(id, chat.NewUserMessage("remembered"))
	m.SetChat(id)

	if m.ChatID() != id {
		t.Errorf("ChatID = %q, want %q", m.ChatID(), id)
	}
	if !strings.Contains(m.View(), "remembered") {
		t.Error("mounted history missing from view")
	}
}

func TestSubmit_WithoutCredentialKeepsDraft(t *testing.T) {
	m, chats, _ := newScreen(t)
	m.SetChat(chats.Create())

	m.input.SetValue("unsent message")
	m, _ = m.submit()

	// Send is a silent no-op without a credential; the draft stays so
	// the user can add a key and retry.
	if m.input.Value() != "unsent message" {
		t.Errorf("input = %q, want draft preserved", m.input.Value())
	}
	if m.Streaming() {
		t.Error("screen entered streaming state without a credential")
	}
	if c, _ := chats.Find(m.ChatID()); len(c.Messages) != 0 {
		t.Errorf("store mutated by refused send: %d messages", len(c.Messages))
	}
}

func TestSubmit_EmptyInputIsNoOp(t *testing.T) {
	m, chats, prefs := newScreen(t)
	prefs.SetAPICredential("vck_test")
	m.SetChat(chats.Create())

	m.input.SetValue("   ")
	m, cmd := m.submit()

	if cmd != nil {
		t.Error("blank submit produced a command")
	}
	if m.Streaming() {
		t.Error("blank submit started streaming")
	}
}

func TestNavigation_EmitsRouterMessages(t *testing.T) {
	m, chats, _ := newScreen(t)
	m.SetChat(chats.Create())

	tests := []struct {
		key  tea.KeyMsg
		want tea.Msg
	}{
		{tea.KeyMsg{Type: tea.KeyEsc}, OpenMenuMsg{}},
		{tea.KeyMsg{Type: tea.KeyCtrlO}, OpenModelsMsg{}},
		{tea.KeyMsg{Type: tea.KeyCtrlK}, OpenKeysMsg{}},
	}

	for _, tc := range tests {
		_, cmd := m.handleKey(tc.key)
		if cmd == nil {
			t.Fatalf("key %v produced no command", tc.key)
		}
		if got := cmd(); got != tc.want {
			t.Errorf("key %v emitted %T, want %T", tc.key, got, tc.want)
		}
	}
}

func TestStatusBar_WarnsWhenNoCredential(t *testing.T) {
	m, chats, prefs := newScreen(t)
	m.SetChat(chats.Create())

	if !strings.Contains(m.View(), "No API key") {
		t.Error("missing-credential warning not shown")
	}

	prefs.SetAPICredential("vck_test")
	if strings.Contains(m.View(), "No API key") {
		t.Error("warning still shown after credential stored")
	}
}
