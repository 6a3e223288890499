// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui wires the gatechat screens into one Bubble Tea program.
//
// The app is a router over four screens: the chat transcript, the chat
// list, the credential screen, and the model picker. Screens signal
// navigation by emitting messages the router consumes.
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/gatechat/internal/config"
	"github.com/jeranaias/gatechat/internal/store"
	"github.com/jeranaias/gatechat/internal/ui/chatscreen"
	"github.com/jeranaias/gatechat/internal/ui/keyscreen"
	"github.com/jeranaias/gatechat/internal/ui/menuscreen"
	"github.com/jeranaias/gatechat/internal/ui/modelscreen"
	"github.com/jeranaias/gatechat/internal/ui/styles"
)

// =============================================================================
// STARTUP
// =============================================================================

// ActivateStartupChat makes sure exactly one chat is active at launch:
// an empty collection gets a fresh chat, otherwise the newest chat wins.
// Returns the activated id.
func ActivateStartupChat(chats *store.ChatStore, prefs *store.PrefsStore) string {
	var id string
	if chats.Len() == 0 {
		id = chats.Create()
	} else {
		id = chats.List()[0].ID
	}
	prefs.SetActiveChatID(id)
	return id
}

// =============================================================================
// APP MODEL
// =============================================================================

type screen int

const (
	screenChat screen = iota
	screenMenu
	screenKeys
	screenModels
)

// App is the root Bubble Tea model.
type App struct {
	theme *styles.Theme
	cfg   *config.Config
	chats *store.ChatStore
	prefs *store.PrefsStore

	active screen
	chat   chatscreen.Model
	menu   menuscreen.Model
	keys   keyscreen.Model
	models modelscreen.Model
}

// NewApp builds the router, runs the startup activation, and mounts the
// active chat. When no credential is stored yet the app opens on the
// credential screen.
func NewApp(cfg *config.Config, chats *store.ChatStore, prefs *store.PrefsStore) App {
	theme := styles.NewTheme()

	app := App{
		theme:  theme,
		cfg:    cfg,
		chats:  chats,
		prefs:  prefs,
		chat:   chatscreen.New(theme, cfg, chats, prefs),
		menu:   menuscreen.New(theme, chats, prefs),
		keys:   keyscreen.New(theme, cfg, prefs),
		models: modelscreen.New(theme, prefs),
	}

	id := ActivateStartupChat(chats, prefs)
	app.chat.SetChat(id)

	if prefs.Get().APICredential == "" {
		app.keys.Reset()
		app.active = screenKeys
	}
	return app
}

// Init starts the active screen.
func (a App) Init() tea.Cmd {
	switch a.active {
	case screenKeys:
		return a.keys.Init()
	default:
		return a.chat.Init()
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update routes messages to the active screen and handles navigation.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		// Every screen tracks the size so switches render correctly.
		var cmds []tea.Cmd
		var cmd tea.Cmd
		a.chat, cmd = a.chat.Update(msg)
		cmds = append(cmds, cmd)
		a.menu, cmd = a.menu.Update(msg)
		cmds = append(cmds, cmd)
		a.keys, cmd = a.keys.Update(msg)
		cmds = append(cmds, cmd)
		a.models, cmd = a.models.Update(msg)
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)

	// Navigation messages from the screens.
	case chatscreen.OpenMenuMsg:
		a.menu.Reset()
		a.active = screenMenu
		return a, a.menu.Init()

	case chatscreen.OpenModelsMsg:
		a.models.Reset()
		a.active = screenModels
		return a, a.models.Init()

	case chatscreen.OpenKeysMsg:
		a.keys.Reset()
		a.active = screenKeys
		return a, a.keys.Init()

	case menuscreen.ChatSelectedMsg:
		if msg.ID != a.chat.ChatID() {
			a.chat.SetChat(msg.ID)
		}
		a.active = screenChat
		return a, a.chat.Init()

	case menuscreen.BackMsg:
		a.active = screenChat
		return a, a.chat.Init()

	case keyscreen.DoneMsg:
		// Remount so the session picks up the new credential and model.
		a.chat.SetChat(a.prefs.Get().ActiveChatID)
		a.active = screenChat
		return a, a.chat.Init()

	case modelscreen.DoneMsg:
		a.chat.SetChat(a.prefs.Get().ActiveChatID)
		a.active = screenChat
		return a, a.chat.Init()
	}

	var cmd tea.Cmd
	switch a.active {
	case screenChat:
		a.chat, cmd = a.chat.Update(msg)
	case screenMenu:
		a.menu, cmd = a.menu.Update(msg)
	case screenKeys:
		a.keys, cmd = a.keys.Update(msg)
	case screenModels:
		a.models, cmd = a.models.Update(msg)
	}
	return a, cmd
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the active screen.
func (a App) View() string {
	switch a.active {
	case screenMenu:
		return a.menu.View()
	case screenKeys:
		return a.keys.View()
	case screenModels:
		return a.models.View()
	default:
		return a.chat.View()
	}
}

// Run starts the program on the alternate screen.
func Run(cfg *config.Config, chats *store.ChatStore, prefs *store.PrefsStore) error {
	p := tea.NewProgram(NewApp(cfg, chats, prefs), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
