// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatscreen

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// StreamingBuffer batches streamed deltas so the viewport is rebuilt at
// a capped frame rate instead of once per token. Deltas accumulate until
// either the batch size threshold is reached or enough time has passed
// since the last flush.
//
// Thread-safety: deltas arrive on the gateway goroutine while flushes
// happen on the Bubble Tea loop, so all operations take the mutex.
type StreamingBuffer struct {
	mu         sync.Mutex
	buffer     strings.Builder
	tokenCount int
	lastFlush  time.Time

	batchSize   int
	minInterval time.Duration
}

// NewStreamingBuffer creates a buffer batching 15 tokens at up to 30fps.
func NewStreamingBuffer() *StreamingBuffer {
	const (
		defaultBatchSize = 15
		defaultMaxFPS    = 30
	)

	return &StreamingBuffer{
		batchSize:   defaultBatchSize,
		minInterval: time.Second / defaultMaxFPS,
		lastFlush:   time.Now(),
	}
}

// Write adds a delta to the buffer. Called from the streaming goroutine.
func (sb *StreamingBuffer) Write(token string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.buffer.WriteString(token)
	sb.tokenCount++
}

// Flush returns the accumulated content when a threshold has been
// reached, or ("", false) when it is too early to re-render.
func (sb *StreamingBuffer) Flush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}
	if sb.tokenCount < sb.batchSize && time.Since(sb.lastFlush) < sb.minInterval {
		return "", false
	}
	return sb.drainLocked(), true
}

// ForceFlush returns whatever is buffered regardless of thresholds.
// Used when the stream ends so the tail is never dropped.
func (sb *StreamingBuffer) ForceFlush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}
	return sb.drainLocked(), true
}

// Reset discards any buffered content.
func (sb *StreamingBuffer) Reset() {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.buffer.Reset()
	sb.tokenCount = 0
	sb.lastFlush = time.Now()
}

func (sb *StreamingBuffer) drainLocked() string {
	content := sb.buffer.String()
	sb.buffer.Reset()
	sb.tokenCount = 0
	sb.lastFlush = time.Now()
	return content
}

// =============================================================================
// STREAM TICK
// =============================================================================

// streamFrameInterval paces viewport rebuilds during streaming (~30fps).
const streamFrameInterval = 33 * time.Millisecond

// streamTickMsg drives one render frame while a reply is streaming.
type streamTickMsg time.Time

func streamTickCmd() tea.Cmd {
	return tea.Tick(streamFrameInterval, func(t time.Time) tea.Msg {
		return streamTickMsg(t)
	})
}
