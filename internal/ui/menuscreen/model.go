// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package menuscreen implements the chat list: browsing, searching,
// creating, deleting, and switching between conversations.
//
// Switching and deletion enforce the empty-chat cleanup policy: an
// abandoned empty chat is removed when the user moves to another one,
// deleting the last chat replaces it with a fresh one, and deleting the
// active chat re-points the selection at the newest remaining chat.
package menuscreen

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/gatechat/internal/chat"
	"github.com/jeranaias/gatechat/internal/store"
	"github.com/jeranaias/gatechat/internal/ui/styles"
	"github.com/jeranaias/gatechat/internal/util"
)

// =============================================================================
// NAVIGATION MESSAGES
// =============================================================================

// ChatSelectedMsg tells the router to mount the chat with this id.
type ChatSelectedMsg struct {
	ID string
}

// BackMsg returns to the chat screen without changing the selection.
type BackMsg struct{}

// =============================================================================
// MODEL
// =============================================================================

const maxDescWidth = 60

// Model is the Bubble Tea model for the chat list screen.
type Model struct {
	theme *styles.Theme
	chats *store.ChatStore
	prefs *store.PrefsStore

	search    textinput.Model
	searching bool
	cursor    int

	width  int
	height int
}

// New creates the chat list screen.
func New(theme *styles.Theme, chats *store.ChatStore, prefs *store.PrefsStore) Model {
	ti := textinput.New()
	ti.Placeholder = "Search chats..."
	ti.Prompt = "/ "
	ti.PromptStyle = theme.InputPrompt
	ti.PlaceholderStyle = theme.InputPlaceholder

	return Model{
		theme:  theme,
		chats:  chats,
		prefs:  prefs,
		search: ti,
	}
}

// Reset clears search state and moves the cursor to the active chat.
// Called by the router each time the screen is shown.
func (m *Model) Reset() {
	m.search.Reset()
	m.search.Blur()
	m.searching = false
	m.cursor = 0

	active := m.prefs.Get().ActiveChatID
	for i, c := range m.chats.List() {
		if c.ID == active {
			m.cursor = i
			break
		}
	}
}

// Init is a no-op; the screen is driven entirely by key input.
func (m Model) Init() tea.Cmd {
	return nil
}

// visible returns the chats matching the current search query,
// newest first.
func (m Model) visible() []chat.Chat {
	all := m.chats.List()
	query := strings.TrimSpace(m.search.Value())
	if query == "" {
		return all
	}

	var out []chat.Chat
	for _, c := range all {
		if util.ContainsFold(c.DisplayTitle(), query) || util.ContainsFold(c.Description, query) {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles key input and resize.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search.Reset()
		m.search.Blur()
		m.searching = false
		m.cursor = 0
		return m, nil
	case "enter":
		m.search.Blur()
		m.searching = false
		m.cursor = 0
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.cursor = 0
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	items := m.visible()

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(items)-1 {
			m.cursor++
		}
		return m, nil

	case "/":
		m.searching = true
		return m, m.search.Focus()

	case "enter":
		if m.cursor >= len(items) {
			return m, nil
		}
		return m, m.selectChat(items[m.cursor].ID)

	case "n":
		return m, m.newChat()

	case "d", "delete":
		if m.cursor >= len(items) {
			return m, nil
		}
		m.deleteChat(items[m.cursor].ID)
		if remaining := len(m.visible()); m.cursor >= remaining && remaining > 0 {
			m.cursor = remaining - 1
		}
		return m, nil

	case "esc", "q":
		return m, func() tea.Msg { return BackMsg{} }
	}
	return m, nil
}

// selectChat activates target, dropping the previous active chat if it
// was never used.
func (m Model) selectChat(target string) tea.Cmd {
	active := m.prefs.Get().ActiveChatID
	if target != active {
		if c, ok := m.chats.Find(active); ok && c.Empty() {
			m.chats.Remove(active)
		}
	}
	m.prefs.SetActiveChatID(target)
	return func() tea.Msg { return ChatSelectedMsg{ID: target} }
}

// newChat opens a fresh conversation. An already empty active chat is
// reused instead of stacking up blank ones.
func (m Model) newChat() tea.Cmd {
	active := m.prefs.Get().ActiveChatID
	if c, ok := m.chats.Find(active); ok && c.Empty() {
		return func() tea.Msg { return ChatSelectedMsg{ID: active} }
	}

	id := m.chats.Create()
	m.prefs.SetActiveChatID(id)
	return func() tea.Msg { return ChatSelectedMsg{ID: id} }
}

// deleteChat removes a chat and repairs the active selection: the last
// chat is replaced with a fresh one, and a deleted active chat hands
// the selection to the newest remaining chat. Only chats with messages
// are deletable; an empty chat is left alone.
func (m *Model) deleteChat(id string) {
	c, ok := m.chats.Find(id)
	if !ok || c.Empty() {
		return
	}

	wasActive := m.prefs.Get().ActiveChatID == id
	m.chats.Remove(id)

	if m.chats.Len() == 0 {
		replacement := m.chats.Create()
		m.prefs.SetActiveChatID(replacement)
		return
	}
	if wasActive {
		m.prefs.SetActiveChatID(m.chats.List()[0].ID)
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat list.
func (m Model) View() string {
	var b strings.Builder

	title := fmt.Sprintf("Chats (%d)", m.chats.Len())
	b.WriteString(m.theme.Header.Width(max(m.width, 20)).Render(m.theme.HeaderTitle.Render(title)))
	b.WriteString("\n")

	if m.searching || m.search.Value() != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}

	items := m.visible()
	if len(items) == 0 {
		b.WriteString(m.theme.ListDesc.Render("  No chats match."))
		b.WriteString("\n")
	}

	active := m.prefs.Get().ActiveChatID
	for i, c := range items {
		b.WriteString(m.renderItem(c, i == m.cursor, c.ID == active))
		b.WriteString("\n")
	}

	b.WriteString(m.statusView())
	return b.String()
}

func (m Model) renderItem(c chat.Chat, selected, active bool) string {
	marker := "  "
	if active {
		marker = m.theme.SuccessStyle.Render("* ")
	}

	title := util.TruncateWidth(c.DisplayTitle(), maxDescWidth)
	desc := util.TruncateWidth(util.SingleLine(c.DisplayDescription()), maxDescWidth)

	line := marker + m.theme.ListTitle.Render(title) + "  " + m.theme.ListDesc.Render(desc)
	if selected {
		return m.theme.ListItemSelected.Render(line)
	}
	return m.theme.ListItem.Render(line)
}

func (m Model) statusView() string {
	hints := []string{
		m.theme.KeyHint.Render("enter") + m.theme.KeyDesc.Render(" open"),
		m.theme.KeyHint.Render("n") + m.theme.KeyDesc.Render(" new"),
		m.theme.KeyHint.Render("d") + m.theme.KeyDesc.Render(" delete"),
		m.theme.KeyHint.Render("/") + m.theme.KeyDesc.Render(" search"),
		m.theme.KeyHint.Render("esc") + m.theme.KeyDesc.Render(" back"),
	}
	return m.theme.StatusBar.Render(strings.Join(hints, "  "))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
