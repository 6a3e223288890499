// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeranaias/gatechat/internal/chat"
)

func sampleChat() *chat.Chat {
	c := chat.New()
	c.Title = "Weather: today's forecast"
	c.Description = "Sunny with a light breeze."
	c.Messages = []chat.Message{
		chat.NewUserMessage("What's the weather?"),
		chat.NewAssistantMessage("", []chat.Part{
			chat.StepStartPart(),
			chat.TextPart("Sunny with a light breeze."),
		}),
	}
	return &c
}

func TestMarkdownExport(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleChat())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	text := string(out)
	for _, want := range []string{"Weather: today's forecast", "What's the weather?", "Sunny with a light breeze.", "generator: gatechat"} {
		if !strings.Contains(text, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestMarkdownExport_NoMetadata(t *testing.T) {
	out, err := NewMarkdownExporter(&Options{IncludeMetadata: false}).Export(sampleChat())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if strings.Contains(string(out), "---\ntitle:") {
		t.Error("frontmatter present with metadata disabled")
	}
}

func TestMarkdownExport_RejectsEmptyChat(t *testing.T) {
	empty := chat.New()
	if _, err := NewMarkdownExporter(nil).Export(&empty); err == nil {
		t.Error("empty chat exported without error")
	}
}

func TestJSONExport_RoundTrips(t *testing.T) {
	src := sampleChat()
	out, err := NewJSONExporter(nil).Export(src)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var parsed chat.Chat
	if err := json.Unmarshal(out, &parsed); err != nil {
		t.Fatalf("exported JSON does not parse: %v", err)
	}
	if parsed.ID != src.ID || len(parsed.Messages) != 2 {
		t.Errorf("round trip lost data: %+v", parsed)
	}
}

func TestHTMLExport_EscapesContent(t *testing.T) {
	c := sampleChat()
	c.Messages[0] = chat.NewUserMessage("<script>alert(1)</script>")

	out, err := NewHTMLExporter(nil).Export(c)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if strings.Contains(string(out), "<script>alert") {
		t.Error("HTML export did not escape message content")
	}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantExt string
		wantErr bool
	}{
		{"md", ".md", false},
		{"markdown", ".md", false},
		{"json", ".json", false},
		{"html", ".html", false},
		{"pdf", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.format, func(t *testing.T) {
			e, err := ForFormat(tc.format, nil)
			if tc.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ForFormat failed: %v", err)
			}
			if e.FileExtension() != tc.wantExt {
				t.Errorf("ext = %q, want %q", e.FileExtension(), tc.wantExt)
			}
		})
	}
}

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	path, err := ExportToFile(sampleChat(), NewMarkdownExporter(nil), &Options{
		IncludeMetadata: true,
		OutputDir:       dir,
	})
	if err != nil {
		t.Fatalf("ExportToFile failed: %v", err)
	}

	if filepath.Dir(path) != dir {
		t.Errorf("path = %q, want under %q", path, dir)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "weather-todays-forecast-") || !strings.HasSuffix(base, ".md") {
		t.Errorf("filename = %q", base)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("exported file missing: %v", err)
	}
}
