// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/gatechat/internal/chat"
	"github.com/jeranaias/gatechat/internal/gateway"
	"github.com/jeranaias/gatechat/internal/session"
	"github.com/jeranaias/gatechat/internal/ui"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for the plain REPL.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a line reader with history persisted under dataDir.
func NewChatCLI(dataDir string) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	cli := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(dataDir, "chat_history"),
	}
	cli.loadHistory()
	return cli
}

func (c *ChatCLI) loadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads one line, recording non-blank input in the history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
		_, _ = c.line.WriteHistory(f)
		f.Close()
	}
	c.line.Close()
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

// RunChat runs the plain interactive chat, persisting turns to the same
// stores the TUI uses.
func RunChat(args Args) error {
	env, err := openEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	prefs := env.Prefs.Get()
	if strings.TrimSpace(prefs.APICredential) == "" {
		return fmt.Errorf("no API key stored; run \"gatechat setup\" first")
	}

	model := resolveModel(args.Model, env)
	chatID := ui.ActivateStartupChat(env.Chats, env.Prefs)

	input := NewChatCLI(env.Cfg.DataDir)
	defer input.Close()

	if !args.Quiet {
		fmt.Printf("gatechat %s (model: %s)\n", Version, model.Label)
		fmt.Println("Type /help for commands, /quit to exit.")
		fmt.Println()
	}

	newSession := func(id string) *session.Session {
		history := historyFor(env, id)
		client := gateway.NewClient(env.Prefs.Get().APICredential).
			WithBaseURL(env.Cfg.Gateway.BaseURL).
			WithTimeout(env.Cfg.Timeout())
		return session.New(session.Config{
			ChatID:     id,
			History:    history,
			Model:      model.Value,
			Credential: env.Prefs.Get().APICredential,
			Chats:      env.Chats,
			Client:     client,
			OnToken:    func(delta string) { fmt.Print(delta) },
		})
	}
	sess := newSession(chatID)

	for {
		text, err := input.ReadInput("> ")
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return nil
		}
		if err != nil {
			return err
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if strings.HasPrefix(text, "/") {
			done, switched := handleREPLCommand(text, env, &model, &chatID)
			if done {
				return nil
			}
			if switched {
				sess.Close()
				sess = newSession(chatID)
			}
			continue
		}

		sess.Send(text)
		waitForReply(sess)
		fmt.Println()

		if sess.Status() == session.StatusError {
			fmt.Fprintf(os.Stderr, "error: %v\n", sess.Err())
			sess.Reset()
		}
	}
}

// waitForReply blocks until the in-flight turn settles.
func waitForReply(sess *session.Session) {
	for sess.Status() == session.StatusStreaming {
		time.Sleep(50 * time.Millisecond)
	}
}

// historyFor reads the persisted messages of a chat.
func historyFor(env *Env, id string) []chat.Message {
	if c, ok := env.Chats.Find(id); ok {
		return c.Messages
	}
	return nil
}

// handleREPLCommand executes a slash command. Returns (quit, sessionInvalidated).
func handleREPLCommand(text string, env *Env, model *gateway.Model, chatID *string) (bool, bool) {
	cmd, arg, _ := strings.Cut(text, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/q", "/exit":
		return true, false

	case "/help", "/h":
		fmt.Println("/model [name]  show or switch model")
		fmt.Println("/new           start a fresh chat")
		fmt.Println("/history       reprint the transcript")
		fmt.Println("/quit          exit")
		return false, false

	case "/model":
		if arg == "" {
			for _, m := range gateway.Models() {
				marker := "  "
				if m.Value == model.Value {
					marker = "* "
				}
				fmt.Printf("%s%-22s %s\n", marker, m.Label, m.Value)
			}
			return false, false
		}
		m, ok := gateway.FindModel(arg)
		if !ok {
			fmt.Printf("unknown model %q; /model lists the catalog\n", arg)
			return false, false
		}
		*model = m
		env.Prefs.SetSelectedModel(m)
		fmt.Printf("model: %s\n", m.Label)
		return false, true

	case "/new":
		id := env.Chats.Create()
		env.Prefs.SetActiveChatID(id)
		*chatID = id
		fmt.Println("started a fresh chat")
		return false, true

	case "/history":
		if c, ok := env.Chats.Find(*chatID); ok {
			for _, msg := range c.Messages {
				fmt.Printf("[%s] %s\n", msg.Role.DisplayName(), msg.Body())
			}
		}
		return false, false

	default:
		fmt.Printf("unknown command %s; /help lists commands\n", cmd)
		return false, false
	}
}

// resolveModel picks the session model: CLI flag, then preference, then
// the catalog default.
func resolveModel(flag string, env *Env) gateway.Model {
	if flag != "" {
		if m, ok := gateway.FindModel(flag); ok {
			return m
		}
		// Not in the catalog; pass the raw value through to the gateway.
		return gateway.Model{Label: flag, Value: flag}
	}
	if m := env.Prefs.Get().SelectedModel; m != nil {
		return *m
	}
	return gateway.DefaultModel()
}
