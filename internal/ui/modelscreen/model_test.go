// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package modelscreen

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/gatechat/internal/gateway"
	"github.com/jeranaias/gatechat/internal/kv"
	"github.com/jeranaias/gatechat/internal/store"
	"github.com/jeranaias/gatechat/internal/tasks"
	"github.com/jeranaias/gatechat/internal/ui/styles"
)

func newScreen(t *testing.T) (Model, *store.PrefsStore) {
	t.Helper()
	adapter, err := kv.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	queue := tasks.NewQueue(64)
	t.Cleanup(func() { _ = queue.Close() })
	t.Cleanup(func() { _ = adapter.Close() })

	prefs := store.NewPrefsStore(adapter, queue)
	return New(styles.NewTheme(), prefs), prefs
}

func TestSelect_StoresChoice(t *testing.T) {
	m, prefs := newScreen(t)
	prefs.SetAPICredential("vck_test")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	want := gateway.Models()[2]
	got := prefs.Get().SelectedModel
	if got == nil || got.Value != want.Value {
		t.Errorf("selected = %+v, want %+v", got, want)
	}
}

func TestReset_CursorFollowsSelection(t *testing.T) {
	m, prefs := newScreen(t)

	prefs.SetSelectedModel(gateway.Models()[4])
	m.Reset()

	if m.cursor != 4 {
		t.Errorf("cursor = %d, want 4", m.cursor)
	}
}

func TestSelect_RequiresCredential(t *testing.T) {
	m, prefs := newScreen(t)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if prefs.Get().SelectedModel != nil {
		t.Error("model selected without a credential")
	}
	_ = m
}

func TestEscape_LeavesSelectionAlone(t *testing.T) {
	m, prefs := newScreen(t)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("esc should emit a navigation message")
	}
	if _, ok := cmd().(DoneMsg); !ok {
		t.Error("esc emitted the wrong message")
	}
	if prefs.Get().SelectedModel != nil {
		t.Error("esc changed the selection")
	}
	_ = m
}
