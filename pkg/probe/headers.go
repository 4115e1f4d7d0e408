package probe

import (
	"encoding/base64"
	"strings"
)

// Header is a single name/value pair. Collections are ordered: request
// headers apply in slice order (a later duplicate name replaces an earlier
// one), response headers serialize in slice order.
type Header struct {
	Name  string
	Value string
}

// BuildHeaders assembles the request headers in application order: fixed
// headers first, then the custom header block, then the authentication
// header. Duplicate names are not deduplicated here; the transport's
// set-semantics make the last occurrence win.
func BuildHeaders(cfg *RequestConfig) []Header {
	var headers []Header

	if cfg.Accept != "" {
		headers = append(headers, Header{Name: "Accept", Value: cfg.Accept})
	}
	if cfg.UserAgent != "" {
		headers = append(headers, Header{Name: "User-Agent", Value: cfg.UserAgent})
	}

	for _, line := range splitLines(cfg.Headers) {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		headers = append(headers, Header{Name: name, Value: strings.TrimSpace(value)})
	}

	if h, ok := authHeader(cfg.Auth); ok {
		headers = append(headers, h)
	}
	return headers
}

// authHeader resolves the authentication scheme to its header, if any. Each
// variant is skipped when its required credentials are empty; basic auth
// requires only the username (the password may be empty).
func authHeader(auth AuthScheme) (Header, bool) {
	switch auth.Type {
	case AuthBearer:
		if auth.Token == "" {
			return Header{}, false
		}
		return Header{Name: "Authorization", Value: "Bearer " + auth.Token}, true

	case AuthAPIKey:
		if auth.Token == "" {
			return Header{}, false
		}
		return Header{Name: "X-API-Key", Value: auth.Token}, true

	case AuthBasic:
		if auth.Username == "" {
			return Header{}, false
		}
		credentials := base64.StdEncoding.EncodeToString([]byte(auth.Username + ":" + auth.Password))
		return Header{Name: "Authorization", Value: "Basic " + credentials}, true

	case AuthCustomHeader:
		if auth.HeaderName == "" || auth.Token == "" {
			return Header{}, false
		}
		return Header{Name: auth.HeaderName, Value: auth.Token}, true

	case AuthNone, "":
		return Header{}, false

	default:
		return Header{}, false
	}
}
