package probe

import (
	"net/url"
	"strings"
)

// BuildURL composes the final request URL from the configuration. It is a
// pure function: identical configurations yield identical URLs.
//
// A non-empty direct URL wins verbatim. Otherwise the base URL (trailing
// "/" stripped) and path (leading "/" stripped) are joined with a single
// "/"; if either side is empty the other is used alone. A non-empty query
// block is appended with "?" when the URL has no query yet, "&" otherwise.
func BuildURL(cfg *RequestConfig) string {
	target := cfg.URL
	if target == "" {
		base := strings.TrimSuffix(cfg.BaseURL, "/")
		path := strings.TrimPrefix(cfg.Path, "/")
		switch {
		case base == "":
			target = path
		case path == "":
			target = base
		default:
			target = base + "/" + path
		}
	}

	query := buildQuery(cfg.Query)
	if query == "" {
		return target
	}
	if strings.Contains(target, "?") {
		return target + "&" + query
	}
	return target + "?" + query
}

// buildQuery turns the freeform "key=value" block into an escaped query
// string. Each line splits on its first "="; lines without "=" or with
// an empty name are dropped.
func buildQuery(block string) string {
	var pairs []string
	for _, line := range splitLines(block) {
		key, value, ok := strings.Cut(line, "=")
		if !ok || key == "" {
			continue
		}
		pairs = append(pairs, escapeQuery(key)+"="+escapeQuery(value))
	}
	return strings.Join(pairs, "&")
}

// splitLines splits a text block on newlines and carriage returns,
// discarding empty lines.
func splitLines(block string) []string {
	if block == "" {
		return nil
	}
	return strings.FieldsFunc(block, func(r rune) bool {
		return r == '\n' || r == '\r'
	})
}

// escapeQuery percent-encodes a query component. Spaces become %20, not
// "+", matching generic percent-encoding rather than form encoding.
func escapeQuery(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
