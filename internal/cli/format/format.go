// Package format renders response bodies for terminal display.
//
// Bodies are rendered according to their Content-Type: JSON is
// pretty-printed, markdown is rendered with glamour, and markup formats
// get chroma syntax highlighting. Everything degrades to the raw body
// when stdout is not a terminal.
package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
)

// Size ceilings per rendering mode. Oversized content is refused rather
// than fed to a renderer.
const (
	maxJSONSize     = 10 << 20  // 10MB
	maxMarkdownSize = 5 << 20   // 5MB
	maxCodeSize     = 2 << 20   // 2MB
	maxStringSize   = 100 << 20 // 100MB
)

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// stripANSI removes ANSI escape sequences from rendered output.
func stripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

func checkSize(content, tag string, limit int) error {
	if len(content) > limit {
		return fmt.Errorf("content size (%d bytes) exceeds %s limit (%d bytes)", len(content), tag, limit)
	}
	return nil
}

// ContentTypeFormat maps a response Content-Type header to a format tag
// understood by Format. Unknown or missing types map to "string".
func ContentTypeFormat(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "string"
	}
	mediaType = strings.ToLower(mediaType)

	switch {
	case mediaType == "application/json", strings.HasSuffix(mediaType, "+json"):
		return "json"
	case mediaType == "text/markdown":
		return "markdown"
	case mediaType == "text/html":
		return "code:html"
	case mediaType == "application/xml", mediaType == "text/xml", strings.HasSuffix(mediaType, "+xml"):
		return "code:xml"
	case mediaType == "application/yaml", mediaType == "application/x-yaml", mediaType == "text/yaml":
		return "code:yaml"
	}
	return "string"
}

// Format renders content according to a format tag: "string", "json",
// "markdown", "code", or "code:<language>". Tags are case-insensitive.
func Format(content string, format string, isTTY bool) (string, error) {
	tag := strings.ToLower(format)
	if tag == "" {
		tag = "string"
	}

	lang := ""
	if rest, ok := strings.CutPrefix(tag, "code:"); ok {
		tag, lang = "code", rest
	}

	switch tag {
	case "string":
		if err := checkSize(content, tag, maxStringSize); err != nil {
			return "", err
		}
		return content, nil
	case "json":
		return renderJSON(content)
	case "markdown":
		return renderMarkdown(content, isTTY)
	case "code":
		return renderCode(content, lang, isTTY)
	default:
		return "", fmt.Errorf("unrecognized format tag %q", format)
	}
}

// renderJSON pretty-prints JSON with 2-space indentation regardless of
// TTY state. Invalid JSON is an error so callers can fall back.
func renderJSON(content string) (string, error) {
	if err := checkSize(content, "json", maxJSONSize); err != nil {
		return "", err
	}

	var obj any
	if err := json.Unmarshal([]byte(content), &obj); err != nil {
		return "", fmt.Errorf("body is not valid JSON: %w", err)
	}
	pretty, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return "", fmt.Errorf("re-encode JSON: %w", err)
	}
	return string(pretty), nil
}

// renderMarkdown renders markdown through glamour on a TTY and passes
// the body through untouched otherwise. Glamour failures degrade to the
// raw body instead of erroring.
func renderMarkdown(content string, isTTY bool) (string, error) {
	if err := checkSize(content, "markdown", maxMarkdownSize); err != nil {
		return "", err
	}
	if !isTTY {
		return content, nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return content, nil
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content, nil
	}
	return stripANSI(rendered), nil
}

// renderCode applies chroma syntax highlighting when a language is known
// and stdout is a TTY. Unrecognized languages degrade to the raw body.
func renderCode(content, lang string, isTTY bool) (string, error) {
	if err := checkSize(content, "code", maxCodeSize); err != nil {
		return "", err
	}
	if !isTTY || lang == "" {
		return content, nil
	}

	var buf bytes.Buffer
	if err := quick.Highlight(&buf, content, lang, "terminal256", "monokai"); err != nil {
		return content, nil
	}
	return stripANSI(buf.String()), nil
}

// FormatBody renders a response body according to its Content-Type.
// Bodies that fail their renderer (oversized content, invalid JSON
// declared as application/json) come back unmodified rather than
// dropped.
func FormatBody(body, contentType string, isTTY bool) string {
	formatted, err := Format(body, ContentTypeFormat(contentType), isTTY)
	if err != nil {
		return body
	}
	return formatted
}
