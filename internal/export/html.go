// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/jeranaias/gatechat/internal/chat"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports chats to a standalone HTML page.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

var htmlTemplate = template.Must(template.New("chat").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; color: #1f2937; }
.meta { color: #6b7280; font-size: 0.9rem; margin-bottom: 2rem; }
.msg { margin: 1rem 0; padding: 0.75rem 1rem; border-radius: 0.5rem; white-space: pre-wrap; }
.user { background: #ecfeff; border-left: 3px solid #0891b2; }
.assistant { background: #f5f3ff; border-left: 3px solid #7c3aed; }
.role { font-weight: 600; font-size: 0.8rem; text-transform: uppercase; color: #6b7280; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .ShowMeta}}<p class="meta">{{.Description}} &middot; {{.Count}} messages &middot; exported {{.Exported}}</p>{{end}}
{{range .Messages}}<div class="msg {{.Class}}"><div class="role">{{.Role}}</div>{{.Body}}</div>
{{end}}</body>
</html>
`))

type htmlMessage struct {
	Class string
	Role  string
	Body  string
}

// Export converts a chat to a self-contained HTML document.
func (e *HTMLExporter) Export(c *chat.Chat) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("chat is nil")
	}
	if len(c.Messages) == 0 {
		return nil, fmt.Errorf("chat has no messages")
	}

	msgs := make([]htmlMessage, 0, len(c.Messages))
	for _, m := range c.Messages {
		msgs = append(msgs, htmlMessage{
			Class: string(m.Role),
			Role:  m.Role.DisplayName(),
			Body:  m.Body(),
		})
	}

	data := struct {
		Title       string
		Description string
		Count       int
		Exported    string
		ShowMeta    bool
		Messages    []htmlMessage
	}{
		Title:       c.DisplayTitle(),
		Description: c.DisplayDescription(),
		Count:       len(c.Messages),
		Exported:    time.Now().Format(time.RFC3339),
		ShowMeta:    e.options.IncludeMetadata,
		Messages:    msgs,
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}
