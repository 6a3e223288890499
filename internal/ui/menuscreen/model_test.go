// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package menuscreen

import (
	"testing"

	"github.com/jeranaias/gatechat/internal/chat"
	"github.com/jeranaias/gatechat/internal/kv"
	"github.com/jeranaias/gatechat/internal/store"
	"github.com/jeranaias/gatechat/internal/tasks"
	"github.com/jeranaias/gatechat/internal/ui/styles"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newStores(t *testing.T) (*store.ChatStore, *store.PrefsStore) {
	t.Helper()
	adapter, err := kv.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	queue := tasks.NewQueue(64)
	t.Cleanup(func() { _ = queue.Close() })
	t.Cleanup(func() { _ = adapter.Close() })
	return store.NewChatStore(adapter, queue), store.NewPrefsStore(adapter, queue)
}

func newScreen(t *testing.T) (Model, *store.ChatStore, *store.PrefsStore) {
	t.Helper()
	chats, prefs := newStores(t)
	return New(styles.NewTheme(), chats, prefs), chats, prefs
}

// =============================================================================
// CLEANUP POLICY TESTS
// =============================================================================

func TestSelectChat_DeletesAbandonedEmptyChat(t *testing.T) {
	m, chats, prefs := newScreen(t)

	used := chats.Create()
	chats.AppendMessage(used, chat.NewUserMessage("kept"))
	empty := chats.Create()
	prefs.SetActiveChatID(empty)

	m.selectChat(used)

	if _, ok := chats.Find(empty); ok {
		t.Error("abandoned empty chat survived the switch")
	}
	if got := prefs.Get().ActiveChatID; got != used {
		t.Errorf("active = %q, want %q", got, used)
	}
}

func TestSelectChat_KeepsNonEmptyChatOnSwitch(t *testing.T) {
	m, chats, prefs := newScreen(t)

	first := chats.Create()
	chats.AppendMessage(first, chat.NewUserMessage("hello"))
	second := chats.Create()
	chats.AppendMessage(second, chat.NewUserMessage("other"))
	prefs.SetActiveChatID(first)

	m.selectChat(second)

	if _, ok := chats.Find(first); !ok {
		t.Error("non-empty chat was deleted on switch")
	}
}

func TestSelectChat_SameChatIsNotDeleted(t *testing.T) {
	m, chats, prefs := newScreen(t)

	empty := chats.Create()
	prefs.SetActiveChatID(empty)

	m.selectChat(empty)

	if _, ok := chats.Find(empty); !ok {
		t.Error("re-selecting the active empty chat deleted it")
	}
}

func TestDeleteChat_EmptyChatIsNoOp(t *testing.T) {
	m, chats, prefs := newScreen(t)

	used := chats.Create()
	chats.AppendMessage(used, chat.NewUserMessage("kept"))
	empty := chats.Create()
	prefs.SetActiveChatID(empty)

	m.deleteChat(empty)

	if _, ok := chats.Find(empty); !ok {
		t.Error("empty chat was deleted; only chats with messages are deletable")
	}
	if chats.Len() != 2 {
		t.Errorf("collection has %d chats, want 2", chats.Len())
	}
	if got := prefs.Get().ActiveChatID; got != empty {
		t.Errorf("active = %q, want unchanged %q", got, empty)
	}
}

func TestDeleteChat_LastChatIsReplaced(t *testing.T) {
	m, chats, prefs := newScreen(t)

	only := chats.Create()
	chats.AppendMessage(only, chat.NewUserMessage("goodbye"))
	prefs.SetActiveChatID(only)

	m.deleteChat(only)

	if chats.Len() != 1 {
		t.Fatalf("collection has %d chats, want exactly 1 replacement", chats.Len())
	}
	replacement := chats.List()[0]
	if replacement.ID == only {
		t.Error("deleted chat still present")
	}
	if got := prefs.Get().ActiveChatID; got != replacement.ID {
		t.Errorf("active = %q, want replacement %q", got, replacement.ID)
	}
}

func TestDeleteChat_ActiveNonLastRepointsToFirst(t *testing.T) {
	m, chats, prefs := newScreen(t)

	older := chats.Create()
	chats.AppendMessage(older, chat.NewUserMessage("keep me"))
	newer := chats.Create()
	chats.AppendMessage(newer, chat.NewUserMessage("delete me"))
	prefs.SetActiveChatID(newer)

	m.deleteChat(newer)

	if got := prefs.Get().ActiveChatID; got != older {
		t.Errorf("active = %q, want new first element %q", got, older)
	}
	if chats.Len() != 1 {
		t.Errorf("collection has %d chats, want 1", chats.Len())
	}
}

func TestDeleteChat_InactiveKeepsSelection(t *testing.T) {
	m, chats, prefs := newScreen(t)

	older := chats.Create()
	chats.AppendMessage(older, chat.NewUserMessage("background"))
	newer := chats.Create()
	chats.AppendMessage(newer, chat.NewUserMessage("active"))
	prefs.SetActiveChatID(newer)

	m.deleteChat(older)

	if got := prefs.Get().ActiveChatID; got != newer {
		t.Errorf("active = %q, want unchanged %q", got, newer)
	}
}

// =============================================================================
// NEW CHAT TESTS
// =============================================================================

func TestNewChat_ReusesEmptyActiveChat(t *testing.T) {
	m, chats, prefs := newScreen(t)

	empty := chats.Create()
	prefs.SetActiveChatID(empty)

	m.newChat()

	if chats.Len() != 1 {
		t.Errorf("blank chat was stacked on top of an existing one: %d chats", chats.Len())
	}
	if got := prefs.Get().ActiveChatID; got != empty {
		t.Errorf("active = %q, want reused %q", got, empty)
	}
}

func TestNewChat_CreatesWhenActiveHasMessages(t *testing.T) {
	m, chats, prefs := newScreen(t)

	used := chats.Create()
	chats.AppendMessage(used, chat.NewUserMessage("hi"))
	prefs.SetActiveChatID(used)

	m.newChat()

	if chats.Len() != 2 {
		t.Fatalf("collection has %d chats, want 2", chats.Len())
	}
	if got := prefs.Get().ActiveChatID; got == used {
		t.Error("active id not moved to the new chat")
	}
}

// =============================================================================
// SEARCH TESTS
// =============================================================================

func TestVisible_FiltersByTitleAndDescription(t *testing.T) {
	m, chats, _ := newScreen(t)

	a := chats.Create()
	chats.SetTitle(a, "Weather in Lisbon")
	b := chats.Create()
	chats.SetTitle(b, "Grocery list")
	chats.SetDescription(b, "Milk and weather stripping")
	c := chats.Create()
	chats.SetTitle(c, "Unrelated")

	m.search.SetValue("weather")

	got := m.visible()
	if len(got) != 2 {
		t.Fatalf("visible = %d chats, want 2", len(got))
	}
	for _, v := range got {
		if v.ID == c {
			t.Error("non-matching chat included")
		}
	}
}

func TestVisible_EmptyQueryShowsAllNewestFirst(t *testing.T) {
	m, chats, _ := newScreen(t)

	older := chats.Create()
	newer := chats.Create()

	got := m.visible()
	if len(got) != 2 || got[0].ID != newer || got[1].ID != older {
		t.Errorf("visible order wrong: %+v", got)
	}
}
