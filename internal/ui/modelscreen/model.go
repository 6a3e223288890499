// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package modelscreen implements the model picker over the gateway's
// fixed catalog.
package modelscreen

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/gatechat/internal/gateway"
	"github.com/jeranaias/gatechat/internal/store"
	"github.com/jeranaias/gatechat/internal/ui/styles"
)

// =============================================================================
// MESSAGES
// =============================================================================

// DoneMsg returns to the chat screen.
type DoneMsg struct{}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the model picker.
type Model struct {
	theme *styles.Theme
	prefs *store.PrefsStore

	catalog []gateway.Model
	cursor  int
	width   int
}

// New creates the model picker.
func New(theme *styles.Theme, prefs *store.PrefsStore) Model {
	return Model{
		theme:   theme,
		prefs:   prefs,
		catalog: gateway.Models(),
	}
}

// Reset moves the cursor to the currently selected model.
func (m *Model) Reset() {
	m.cursor = 0
	selected := m.prefs.Get().SelectedModel
	if selected == nil {
		return
	}
	for i, mod := range m.catalog {
		if mod.Value == selected.Value {
			m.cursor = i
			break
		}
	}
}

// Init is a no-op.
func (m Model) Init() tea.Cmd {
	return nil
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles key input.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.catalog)-1 {
				m.cursor++
			}
		case "enter":
			// The picker is inert until a credential exists.
			if strings.TrimSpace(m.prefs.Get().APICredential) == "" {
				return m, nil
			}
			m.prefs.SetSelectedModel(m.catalog[m.cursor])
			return m, func() tea.Msg { return DoneMsg{} }
		case "esc", "q":
			return m, func() tea.Msg { return DoneMsg{} }
		}
	}
	return m, nil
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the picker.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.theme.Header.Width(max(m.width, 20)).Render(m.theme.HeaderTitle.Render("Model")))
	b.WriteString("\n")

	if strings.TrimSpace(m.prefs.Get().APICredential) == "" {
		b.WriteString(m.theme.WarningStyle.Render("  Add an API key before picking a model."))
		b.WriteString("\n")
	}

	selected := m.prefs.Get().SelectedModel
	for i, mod := range m.catalog {
		marker := "  "
		if selected != nil && selected.Value == mod.Value {
			marker = m.theme.SuccessStyle.Render("* ")
		}
		line := marker + m.theme.ListTitle.Render(mod.Label) + "  " + m.theme.ListDesc.Render(mod.Value)
		if i == m.cursor {
			b.WriteString(m.theme.ListItemSelected.Render(line))
		} else {
			b.WriteString(m.theme.ListItem.Render(line))
		}
		b.WriteString("\n")
	}

	hints := []string{
		m.theme.KeyHint.Render("enter") + m.theme.KeyDesc.Render(" select"),
		m.theme.KeyHint.Render("esc") + m.theme.KeyDesc.Render(" back"),
	}
	b.WriteString(m.theme.StatusBar.Render(strings.Join(hints, "  ")))
	return b.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
