// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

var (
	markdownOnce     sync.Once
	markdownRenderer *glamour.TermRenderer
)

// initMarkdown builds the shared glamour renderer. A nil renderer means
// initialization failed and callers fall back to plain text.
func initMarkdown(width int) {
	markdownOnce.Do(func() {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err == nil {
			markdownRenderer = r
		}
	})
}

// RenderMarkdown renders markdown content for terminal display, wrapped
// to the given width. Falls back to the raw content when rendering is
// unavailable or fails.
func RenderMarkdown(content string, width int) string {
	if width < 20 {
		width = 20
	}
	initMarkdown(width)
	if markdownRenderer == nil {
		return content
	}

	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}
