package format

import (
	"strings"
	"testing"
)

func TestContentTypeFormat(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"application/json", "json"},
		{"application/json; charset=utf-8", "json"},
		{"application/problem+json", "json"},
		{"APPLICATION/JSON", "json"},
		{"text/markdown", "markdown"},
		{"text/html; charset=utf-8", "code:html"},
		{"application/xml", "code:xml"},
		{"text/xml", "code:xml"},
		{"application/atom+xml", "code:xml"},
		{"application/yaml", "code:yaml"},
		{"application/x-yaml", "code:yaml"},
		{"text/plain", "string"},
		{"application/octet-stream", "string"},
		{"", "string"},
		{";;;", "string"},
	}

	for _, tt := range tests {
		if got := ContentTypeFormat(tt.contentType); got != tt.want {
			t.Errorf("ContentTypeFormat(%q) = %q, want %q", tt.contentType, got, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		format   string
		isTTY    bool
		wantErr  bool
		contains string
	}{
		{
			name:     "empty tag defaults to string",
			content:  "plain text",
			format:   "",
			contains: "plain text",
		},
		{
			name:     "string passes through on TTY",
			content:  "ready",
			format:   "string",
			isTTY:    true,
			contains: "ready",
		},
		{
			name:     "json is pretty printed without TTY",
			content:  `{"allow":"OPTIONS"}`,
			format:   "json",
			contains: "\"allow\": \"OPTIONS\"",
		},
		{
			name:    "invalid json errors",
			content: `{broken`,
			format:  "json",
			wantErr: true,
		},
		{
			name:     "markdown passes through without TTY",
			content:  "# Report\n\nall clear",
			format:   "markdown",
			contains: "# Report",
		},
		{
			name:     "markdown renders on TTY",
			content:  "# Report\n\nall clear",
			format:   "markdown",
			isTTY:    true,
			contains: "Report",
		},
		{
			name:     "tags are case insensitive",
			content:  "# Report",
			format:   "MARKDOWN",
			contains: "Report",
		},
		{
			name:     "code without language passes through",
			content:  "<p>hello</p>",
			format:   "code",
			isTTY:    true,
			contains: "<p>hello</p>",
		},
		{
			name:     "code with language passes through without TTY",
			content:  "<html></html>",
			format:   "code:html",
			contains: "<html></html>",
		},
		{
			name:     "code highlights on TTY",
			content:  "<status>ready</status>",
			format:   "code:xml",
			isTTY:    true,
			contains: "status",
		},
		{
			name:     "unknown language degrades to raw body",
			content:  "print(42)",
			format:   "code:nosuchlang",
			isTTY:    true,
			contains: "print(42)",
		},
		{
			name:    "unknown tag errors",
			content: "raw bytes",
			format:  "binary",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format(tt.content, tt.format, tt.isTTY)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Format(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
			if !tt.wantErr && !strings.Contains(got, tt.contains) {
				t.Errorf("Format(%q) = %q, want it to contain %q", tt.format, got, tt.contains)
			}
		})
	}
}

func TestFormatJSONIndentation(t *testing.T) {
	got, err := Format(`{"b":1,"a":{"c":true}}`, "json", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "{\n  \"a\": {\n    \"c\": true\n  },\n  \"b\": 1\n}"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatSizeLimits(t *testing.T) {
	oversized := strings.Repeat("x", maxCodeSize+1)

	_, err := Format(oversized, "code:xml", true)
	if err == nil {
		t.Fatal("expected oversized code content to be refused")
	}
	if !strings.Contains(err.Error(), "exceeds code limit") {
		t.Errorf("size error should name the rendering mode, got %v", err)
	}
}

func TestFormatBody(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		contains    string
	}{
		{
			name:        "json body is pretty printed",
			body:        `{"status":"ok"}`,
			contentType: "application/json",
			contains:    "\"status\": \"ok\"",
		},
		{
			name:        "invalid json declared as json falls back to raw",
			body:        `{not json`,
			contentType: "application/json",
			contains:    "{not json",
		},
		{
			name:        "plain text passes through",
			body:        "ready",
			contentType: "text/plain",
			contains:    "ready",
		},
		{
			name:        "missing content type passes through",
			body:        "anything",
			contentType: "",
			contains:    "anything",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatBody(tt.body, tt.contentType, false)
			if !strings.Contains(got, tt.contains) {
				t.Errorf("FormatBody() = %q, want it to contain %q", got, tt.contains)
			}
		})
	}
}

func TestFormatBodyOversizedFallsBack(t *testing.T) {
	body := strings.Repeat("<a/>", maxCodeSize/4+1)

	got := FormatBody(body, "text/html", true)
	if got != body {
		t.Error("expected oversized body to come back unmodified")
	}
}

func TestStripANSI(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain text", "plain text"},
		{"\x1b[31mred\x1b[0m", "red"},
		{"\x1b[1;32mbold green\x1b[0m tail", "bold green tail"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := stripANSI(tt.input); got != tt.want {
			t.Errorf("stripANSI(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
