// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks provides a serialized background queue for persistence work.
package tasks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// TASK QUEUE
// =============================================================================

// Func is a unit of background work.
type Func func(ctx context.Context) error

// Task pairs a queued function with an identity for diagnostics.
type Task struct {
	ID          string
	Description string
	fn          Func
}

// Queue runs tasks one at a time in submission order on a single worker
// goroutine. The stores use it to serialize their snapshot writes so a
// newer snapshot can never be clobbered by an older one finishing late.
//
// Failures are recorded in a last-error slot instead of being returned:
// callers treat persistence as fire-and-forget and keep in-memory state
// authoritative.
type Queue struct {
	pending chan Task
	done    chan struct{}

	// mu protects lastErr and closed
	mu      sync.Mutex
	lastErr error
	closed  bool

	// timeout bounds each task's execution
	timeout time.Duration
}

// ErrQueueClosed indicates a submission after Close.
var ErrQueueClosed = errors.New("task queue closed")

// DefaultTaskTimeout bounds a single persistence write.
const DefaultTaskTimeout = 10 * time.Second

// NewQueue creates a queue with the given buffer size and starts its
// worker. A buffer of 0 makes Enqueue block until the worker is free.
func NewQueue(buffer int) *Queue {
	q := &Queue{
		pending: make(chan Task, buffer),
		done:    make(chan struct{}),
		timeout: DefaultTaskTimeout,
	}
	go q.run()
	return q
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Enqueue submits fn for background execution and returns the task ID.
// Safe against a concurrent Close: the send happens under the same mutex
// that guards the closed flag, so Close can never close the channel
// between the check and the send.
func (q *Queue) Enqueue(description string, fn Func) (string, error) {
	task := Task{
		ID:          uuid.NewString(),
		Description: description,
		fn:          fn,
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return "", ErrQueueClosed
	}
	q.pending <- task
	return task.ID, nil
}

// =============================================================================
// WORKER
// =============================================================================

// run drains the pending channel until Close.
func (q *Queue) run() {
	defer close(q.done)

	for task := range q.pending {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		err := task.fn(ctx)
		cancel()

		if err != nil {
			q.mu.Lock()
			q.lastErr = err
			q.mu.Unlock()
		}
	}
}

// =============================================================================
// ERROR SLOT
// =============================================================================

// LastErr returns the most recent task failure, or nil.
func (q *Queue) LastErr() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastErr
}

// ClearErr resets the last-error slot.
func (q *Queue) ClearErr() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.lastErr = nil
}

// =============================================================================
// SHUTDOWN
// =============================================================================

// Close stops accepting work, runs everything already queued, and waits
// for the worker to exit.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.mu.Unlock()

	// No sender can be mid-send here: Enqueue sends under the mutex and
	// observes closed once we release it.
	close(q.pending)
	<-q.done
	return q.LastErr()
}
