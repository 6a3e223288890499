// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chatscreen implements the conversation view: the message
// transcript, the input line, and the live rendering of a streaming
// assistant reply.
package chatscreen

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/gatechat/internal/chat"
	"github.com/jeranaias/gatechat/internal/config"
	"github.com/jeranaias/gatechat/internal/gateway"
	"github.com/jeranaias/gatechat/internal/session"
	"github.com/jeranaias/gatechat/internal/store"
	"github.com/jeranaias/gatechat/internal/ui/components"
	"github.com/jeranaias/gatechat/internal/ui/styles"
)

// =============================================================================
// NAVIGATION MESSAGES
// =============================================================================

// OpenMenuMsg asks the router to show the chat list.
type OpenMenuMsg struct{}

// OpenModelsMsg asks the router to show the model picker.
type OpenModelsMsg struct{}

// OpenKeysMsg asks the router to show the credential screen.
type OpenKeysMsg struct{}

// =============================================================================
// MODEL
// =============================================================================

const inputCharLimit = 4000

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	theme *styles.Theme
	cfg   *config.Config
	chats *store.ChatStore
	prefs *store.PrefsStore

	chatID string
	sess   *session.Session
	buf    *StreamingBuffer

	viewport viewport.Model
	input    textinput.Model
	spin     components.Spinner

	width  int
	height int
	sized  bool
}

// New creates a chat screen bound to the stores. Call SetChat before
// the first render to mount a conversation.
func New(theme *styles.Theme, cfg *config.Config, chats *store.ChatStore, prefs *store.PrefsStore) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.PlaceholderStyle = theme.InputPlaceholder
	ti.CharLimit = inputCharLimit
	ti.Focus()

	return Model{
		theme:    theme,
		cfg:      cfg,
		chats:    chats,
		prefs:    prefs,
		buf:      NewStreamingBuffer(),
		viewport: viewport.New(80, 20),
		input:    ti,
		spin:     components.NewThinkingSpinner(),
	}
}

// SetChat mounts the chat with the given id, replacing any previous
// session. The old session keeps consuming its in-flight request so a
// completion that still arrives is persisted.
func (m *Model) SetChat(id string) {
	if m.sess != nil {
		m.sess.Close()
	}
	m.buf.Reset()

	var history []chat.Message
	if c, ok := m.chats.Find(id); ok {
		history = c.Messages
	}

	p := m.prefs.Get()
	model := gateway.DefaultModel().Value
	if p.SelectedModel != nil {
		model = p.SelectedModel.Value
	}

	client := gateway.NewClient(p.APICredential).
		WithBaseURL(m.cfg.Gateway.BaseURL).
		WithTimeout(m.cfg.Timeout())

	m.chatID = id
	m.sess = session.New(session.Config{
		ChatID:     id,
		History:    history,
		Model:      model,
		Credential: p.APICredential,
		Chats:      m.chats,
		Client:     client,
		OnToken:    m.buf.Write,
	})
	m.refreshViewport()
}

// ChatID returns the id of the mounted chat.
func (m Model) ChatID() string {
	return m.chatID
}

// Streaming reports whether a reply is currently in flight.
func (m Model) Streaming() bool {
	return m.sess != nil && m.sess.Status() == session.StatusStreaming
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles input, resize, and stream frames.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.sized = true
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-5, 3)
		m.refreshViewport()
		return m, nil

	case streamTickMsg:
		if _, ok := m.buf.Flush(); ok {
			m.refreshViewport()
		}
		if m.Streaming() {
			return m, streamTickCmd()
		}
		// Stream finished between frames; render the tail.
		m.buf.ForceFlush()
		m.spin.Stop()
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmds []tea.Cmd
	if cmd := m.spin.Update(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.submit()

	case "esc", "ctrl+l":
		// Navigation is disabled mid-stream; the reply must settle first.
		if m.Streaming() {
			return m, nil
		}
		return m, func() tea.Msg { return OpenMenuMsg{} }

	case "ctrl+o":
		if m.Streaming() {
			return m, nil
		}
		return m, func() tea.Msg { return OpenModelsMsg{} }

	case "ctrl+k":
		if m.Streaming() {
			return m, nil
		}
		return m, func() tea.Msg { return OpenKeysMsg{} }

	case "ctrl+r":
		if m.sess != nil && m.sess.Status() == session.StatusError {
			m.sess.Reset()
			m.refreshViewport()
		}
		return m, nil

	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (Model, tea.Cmd) {
	if m.sess == nil {
		return m, nil
	}
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	m.sess.Send(text)
	if m.sess.Status() != session.StatusStreaming {
		// Send refused (no credential or busy); keep the draft text.
		return m, nil
	}

	m.input.Reset()
	m.refreshViewport()
	return m, tea.Batch(m.spin.Start(), streamTickCmd())
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the full chat screen.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.spin.Active() {
		b.WriteString(m.theme.StreamingText.Render(m.spin.View()))
		b.WriteString("\n")
	} else if m.sess != nil && m.sess.Status() == session.StatusError {
		b.WriteString(m.errorView())
		b.WriteString("\n")
	}

	b.WriteString(m.theme.InputContainer.Width(max(m.width, 20)).Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.statusView())
	return b.String()
}

func (m Model) headerView() string {
	title := "New Chat"
	if c, ok := m.chats.Find(m.chatID); ok {
		title = c.DisplayTitle()
	}

	model := gateway.DefaultModel().Label
	if p := m.prefs.Get(); p.SelectedModel != nil {
		model = p.SelectedModel.Label
	}

	line := m.theme.HeaderTitle.Render(title) + "  " + m.theme.HeaderModel.Render(model)
	return m.theme.Header.Width(max(m.width, lipgloss.Width(line))).Render(line)
}

func (m Model) errorView() string {
	msg := "request failed"
	if err := m.sess.Err(); err != nil {
		msg = err.Error()
	}
	return m.theme.ErrorBox.Render(msg + "  (ctrl+r to retry)")
}

func (m Model) statusView() string {
	if p := m.prefs.Get(); strings.TrimSpace(p.APICredential) == "" {
		return m.theme.StatusBar.Render(
			m.theme.WarningStyle.Render("No API key set") + "  " +
				m.theme.KeyHint.Render("ctrl+k") + m.theme.KeyDesc.Render(" add key"))
	}

	hints := []string{
		m.theme.KeyHint.Render("enter") + m.theme.KeyDesc.Render(" send"),
		m.theme.KeyHint.Render("esc") + m.theme.KeyDesc.Render(" chats"),
		m.theme.KeyHint.Render("ctrl+o") + m.theme.KeyDesc.Render(" model"),
		m.theme.KeyHint.Render("ctrl+k") + m.theme.KeyDesc.Render(" key"),
	}
	return m.theme.StatusBar.Render(strings.Join(hints, "  "))
}

// refreshViewport rebuilds the transcript from the session's live list,
// which includes any partially streamed draft.
func (m *Model) refreshViewport() {
	if m.sess == nil {
		m.viewport.SetContent("")
		return
	}

	width := m.viewport.Width
	if width < 20 {
		width = 80
	}

	var blocks []string
	for _, msg := range m.sess.Messages() {
		blocks = append(blocks, m.renderMessage(msg, width))
	}
	if len(blocks) == 0 {
		blocks = append(blocks, m.theme.InputPlaceholder.Render("Send a message to start the conversation."))
	}

	m.viewport.SetContent(strings.Join(blocks, "\n\n"))
	m.viewport.GotoBottom()
}

func (m Model) renderMessage(msg chat.Message, width int) string {
	body := msg.Body()

	if msg.Role == chat.RoleUser {
		return m.theme.UserBubble.MaxWidth(width).Render(body)
	}

	if m.cfg.UI.RenderMarkdown {
		body = components.RenderMarkdown(body, width-4)
	} else {
		body = components.ParseCodeBlocks(body, width-4)
	}
	return m.theme.AssistantBubble.MaxWidth(width).Render(body)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
