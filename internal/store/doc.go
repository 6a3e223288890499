// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds the two application state stores.
//
// PrefsStore owns the singleton preferences record (active chat id,
// selected model, API credential); ChatStore owns the chat collection.
// Both follow the same discipline: mutations update in-memory state
// synchronously, notify subscribers, then schedule a fire-and-forget
// background write of the full serialized state through a key-value
// adapter. In-memory state is the single source of truth for the process
// lifetime; persistence failures are swallowed and only visible through
// LastPersistErr.
package store
