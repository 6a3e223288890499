// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session bridges one chat screen to the gateway stream.
//
// A Session is created per chat screen and rebuilt whenever the chat id
// changes. It owns the transient live message list: the persisted history
// read at mount, plus the optimistically appended user turn, plus the
// partially streamed assistant draft. Only a completed assistant turn
// moves from the live list into the durable chat store; deltas are never
// persisted.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/jeranaias/gatechat/internal/chat"
	"github.com/jeranaias/gatechat/internal/gateway"
	"github.com/jeranaias/gatechat/internal/store"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the adapter's lifecycle state. While not Ready, Send is a
// silent no-op and the screen disables chat navigation affordances.
type Status int

const (
	StatusReady Status = iota
	StatusStreaming
	StatusError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusStreaming:
		return "streaming"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// =============================================================================
// SESSION
// =============================================================================

// Config carries the construction inputs for a Session.
type Config struct {
	ChatID     string
	History    []chat.Message
	Model      string
	Credential string

	Chats *store.ChatStore

	// Client overrides the gateway client built from Credential; used to
	// point at a different base URL.
	Client *gateway.Client

	// OnUpdate runs after every live-list or status change. May be nil.
	OnUpdate func()

	// OnToken receives each streamed text delta as it arrives. May be nil.
	OnToken func(string)
}

// Session is the streaming adapter for a single chat screen.
type Session struct {
	chatID     string
	model      string
	credential string

	chats   *store.ChatStore
	client  *gateway.Client
	notify  func()
	onToken func(string)

	mu      sync.Mutex
	live    []chat.Message
	draft   *chat.Message
	status  Status
	lastErr error
	closed  bool
}

// New creates a session seeded with the chat's persisted history.
func New(cfg Config) *Session {
	client := cfg.Client
	if client == nil {
		client = gateway.NewClient(cfg.Credential)
	}
	notify := cfg.OnUpdate
	if notify == nil {
		notify = func() {}
	}
	onToken := cfg.OnToken
	if onToken == nil {
		onToken = func(string) {}
	}

	live := make([]chat.Message, len(cfg.History))
	for i := range cfg.History {
		live[i] = cfg.History[i].Clone()
	}

	return &Session{
		chatID:     cfg.ChatID,
		model:      cfg.Model,
		credential: strings.TrimSpace(cfg.Credential),
		chats:      cfg.Chats,
		client:     client,
		notify:     notify,
		onToken:    onToken,
		live:       live,
		status:     StatusReady,
	}
}

// =============================================================================
// READS
// =============================================================================

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Err returns the failure behind a StatusError, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Messages returns the live message list, including any streaming draft.
func (s *Session) Messages() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]chat.Message, 0, len(s.live)+1)
	for i := range s.live {
		out = append(out, s.live[i].Clone())
	}
	if s.draft != nil {
		out = append(out, s.draft.Clone())
	}
	return out
}

// =============================================================================
// SEND
// =============================================================================

// Send submits a user turn. Preconditions: text trimmed non-empty, a
// credential present, and status Ready; violating any is a silent no-op.
// The user message is appended to the chat store immediately, without
// waiting for the network; the assistant reply streams into the live list
// and is persisted only on completion.
func (s *Session) Send(text string) {
	text = strings.TrimSpace(text)
	if text == "" || s.credential == "" {
		return
	}

	s.mu.Lock()
	if s.status != StatusReady || s.closed {
		s.mu.Unlock()
		return
	}

	userMsg := chat.NewUserMessage(text)
	s.live = append(s.live, userMsg)
	history := gateway.FlattenHistory(s.live)
	s.status = StatusStreaming
	s.lastErr = nil
	s.mu.Unlock()

	// Optimistic append; title is first-write-wins in the store.
	s.chats.AppendMessage(s.chatID, userMsg)
	s.chats.SetTitle(s.chatID, text)
	s.notify()

	go s.stream(history)
}

// stream consumes the gateway response for one turn.
func (s *Session) stream(history []gateway.WireMessage) {
	var assembled strings.Builder

	err := s.client.ChatStream(context.Background(), s.model, history, func(chunk gateway.StreamChunk) {
		delta := chunk.GetContent()
		if delta == "" {
			return
		}
		assembled.WriteString(delta)

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		if s.draft == nil {
			m := chat.NewAssistantMessage("", []chat.Part{chat.StepStartPart(), chat.TextPart("")})
			s.draft = &m
		}
		s.draft.Parts[len(s.draft.Parts)-1].Text = assembled.String()
		closed := s.closed
		s.mu.Unlock()

		if !closed {
			s.onToken(delta)
			s.notify()
		}
	})

	if err != nil {
		s.fail(err)
		return
	}
	s.complete(assembled.String())
}

// complete reconciles a finished assistant turn into the chat store.
// The description is first-write-wins in the store, so only the first
// completion on a chat sets it.
func (s *Session) complete(text string) {
	final := chat.NewAssistantMessage("", []chat.Part{
		chat.StepStartPart(),
		chat.TextPart(text),
	})

	s.chats.AppendMessage(s.chatID, final)
	s.chats.SetDescription(s.chatID, final.LastFragmentText())

	s.mu.Lock()
	s.draft = nil
	s.live = append(s.live, final)
	s.status = StatusReady
	closed := s.closed
	s.mu.Unlock()

	if !closed {
		s.notify()
	}
}

// fail drops the partial draft without touching the chat store.
func (s *Session) fail(err error) {
	s.mu.Lock()
	s.draft = nil
	s.status = StatusError
	s.lastErr = err
	closed := s.closed
	s.mu.Unlock()

	if !closed {
		s.notify()
	}
}

// Reset returns an errored session to Ready so the user can retry.
func (s *Session) Reset() {
	s.mu.Lock()
	if s.status == StatusError {
		s.status = StatusReady
		s.lastErr = nil
	}
	s.mu.Unlock()
	s.notify()
}

// =============================================================================
// TEARDOWN
// =============================================================================

// Close stops delivering live updates for this screen instance. An
// in-flight request keeps running so a completion that still arrives is
// persisted; only the on-screen rendering of further increments stops.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
