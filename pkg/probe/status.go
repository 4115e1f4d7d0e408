package probe

import (
	"fmt"
	"strings"
)

// statusTexts covers the codes an OPTIONS probe reports most often. Any
// other code formats as "HTTP <code>".
var statusTexts = map[int]string{
	200: "OK",
	201: "Created",
	204: "No Content",
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	500: "Internal Server Error",
	502: "Bad Gateway",
	503: "Service Unavailable",
}

// StatusText returns the human-readable text for a status code.
func StatusText(code int) string {
	if text, ok := statusTexts[code]; ok {
		return text
	}
	return fmt.Sprintf("HTTP %d", code)
}

// FormatHeaders serializes headers for display, one "Name: Value" line per
// header, in slice order.
func FormatHeaders(headers []Header) string {
	var b strings.Builder
	for i, h := range headers {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(h.Name)
		b.WriteString(": ")
		b.WriteString(h.Value)
	}
	return b.String()
}

// headerValue looks up a header by name, case-insensitively. Returns false
// when the header is absent.
func headerValue(headers []Header, name string) (string, bool) {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}
