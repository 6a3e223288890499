// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package keyscreen implements credential entry: the gateway API key is
// typed masked, verified against the gateway with a one-token probe,
// and stored in preferences only when the probe succeeds.
package keyscreen

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/gatechat/internal/config"
	"github.com/jeranaias/gatechat/internal/gateway"
	"github.com/jeranaias/gatechat/internal/store"
	"github.com/jeranaias/gatechat/internal/ui/components"
	"github.com/jeranaias/gatechat/internal/ui/styles"
)

// =============================================================================
// MESSAGES
// =============================================================================

// DoneMsg returns to the chat screen.
type DoneMsg struct{}

// verifyResultMsg carries the outcome of an async credential probe.
type verifyResultMsg struct {
	credential string
	ok         bool
}

// verifyTimeout bounds the credential probe.
const verifyTimeout = 30 * time.Second

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the credential screen.
type Model struct {
	theme *styles.Theme
	cfg   *config.Config
	prefs *store.PrefsStore

	input     textinput.Model
	spin      components.Spinner
	verifying bool
	failed    bool
	saved     bool

	width int
}

// New creates the credential screen.
func New(theme *styles.Theme, cfg *config.Config, prefs *store.PrefsStore) Model {
	ti := textinput.New()
	ti.Placeholder = "Paste your gateway API key"
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.PlaceholderStyle = theme.InputPlaceholder
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '*'
	ti.Focus()

	s := components.NewSpinner()
	s.SetMessage("Verifying key")

	return Model{
		theme: theme,
		cfg:   cfg,
		prefs: prefs,
		input: ti,
		spin:  s,
	}
}

// Reset clears transient state when the screen is shown.
func (m *Model) Reset() {
	m.input.Reset()
	m.input.Focus()
	m.verifying = false
	m.failed = false
	m.saved = false
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles input and verification results.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case verifyResultMsg:
		m.verifying = false
		m.spin.Stop()
		if !msg.ok {
			m.failed = true
			return m, nil
		}
		// The default model is assigned alongside the first working key
		// so the chat screen is immediately usable.
		m.prefs.SetAPICredential(msg.credential)
		if m.prefs.Get().SelectedModel == nil {
			m.prefs.SetSelectedModel(gateway.DefaultModel())
		}
		m.saved = true
		return m, func() tea.Msg { return DoneMsg{} }

	case tea.KeyMsg:
		if m.verifying {
			return m, nil
		}
		switch msg.String() {
		case "enter":
			return m.submit()
		case "esc":
			return m, func() tea.Msg { return DoneMsg{} }
		case "ctrl+x":
			// Clearing the key also drops the model choice; both are
			// re-established together on the next successful verify.
			m.prefs.SetAPICredential("")
			m.prefs.ClearSelectedModel()
			m.input.Reset()
			m.failed = false
			return m, nil
		}
	}

	var cmds []tea.Cmd
	if cmd := m.spin.Update(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) submit() (Model, tea.Cmd) {
	credential := strings.TrimSpace(m.input.Value())
	if credential == "" {
		return m, nil
	}

	m.verifying = true
	m.failed = false
	return m, tea.Batch(m.spin.Start(), m.verifyCmd(credential))
}

// verifyCmd probes the gateway off the UI loop.
func (m Model) verifyCmd(credential string) tea.Cmd {
	baseURL := m.cfg.Gateway.BaseURL
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
		defer cancel()

		client := gateway.NewClient(credential).WithBaseURL(baseURL)
		return verifyResultMsg{
			credential: credential,
			ok:         gateway.VerifyWith(ctx, client),
		}
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the credential screen.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.theme.Header.Width(max(m.width, 20)).Render(m.theme.HeaderTitle.Render("API Key")))
	b.WriteString("\n\n")

	if m.prefs.Get().APICredential != "" {
		b.WriteString(m.theme.SuccessStyle.Render("A key is stored.") +
			m.theme.KeyDesc.Render("  Enter a new one to replace it."))
		b.WriteString("\n\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.verifying:
		b.WriteString(m.theme.StreamingText.Render(m.spin.View()))
		b.WriteString("\n")
	case m.failed:
		b.WriteString(m.theme.ErrorBox.Render("Verification failed. Check the key and try again."))
		b.WriteString("\n")
	case m.saved:
		b.WriteString(m.theme.SuccessStyle.Render("Key verified and saved."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	hints := []string{
		m.theme.KeyHint.Render("enter") + m.theme.KeyDesc.Render(" verify"),
		m.theme.KeyHint.Render("ctrl+x") + m.theme.KeyDesc.Render(" clear stored key"),
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
