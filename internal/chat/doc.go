// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat contains the data structures for chats and messages.
//
// A Chat is an ordered, append-only sequence of Messages plus metadata
// (title, description). A Message is a role-tagged sequence of content
// fragments (Parts); concatenating its text fragments yields the rendered
// body. Unknown fragment kinds pass through serialization opaquely so
// payloads written by newer builds still load.
package chat
