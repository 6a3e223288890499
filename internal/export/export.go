// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export converts chat transcripts to shareable formats.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/jeranaias/gatechat/internal/chat"
	"github.com/jeranaias/gatechat/internal/util"
)

// =============================================================================
// EXPORTER INTERFACE
// =============================================================================

// Exporter converts a chat to a specific output format.
type Exporter interface {
	// Export converts the chat to the target format.
	Export(c *chat.Chat) ([]byte, error)

	// FileExtension returns the extension including the dot.
	FileExtension() string

	// MimeType returns the MIME type of the format.
	MimeType() string
}

// Options controls export output.
type Options struct {
	// IncludeMetadata adds a header with title, description, and counts.
	IncludeMetadata bool

	// OutputDir is where ExportToFile writes; empty means current dir.
	OutputDir string
}

// DefaultOptions returns the standard export settings.
func DefaultOptions() *Options {
	return &Options{IncludeMetadata: true}
}

// ForFormat returns the exporter for a format name ("md", "json", "html").
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(format) {
	case "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	case "html":
		return NewHTMLExporter(opts), nil
	default:
		return nil, fmt.Errorf("unknown export format %q (want md, json, or html)", format)
	}
}

// =============================================================================
// FILE OUTPUT
// =============================================================================

// ExportToFile writes the exported chat to a file named after its title
// and returns the path.
func ExportToFile(c *chat.Chat, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	data, err := exporter.Export(c)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s-%s%s",
		sanitizeFilename(c.DisplayTitle()),
		time.Now().Format("20060102-150405"),
		exporter.FileExtension())
	path := filepath.Join(opts.OutputDir, name)

	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
			return "", fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// sanitizeFilename reduces a chat title to a safe filename stem.
func sanitizeFilename(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			sb.WriteRune('-')
		}
	}
	stem := strings.Trim(sb.String(), "-")
	if stem == "" {
		stem = "chat"
	}
	return util.TruncateRunes(stem, 48)
}
