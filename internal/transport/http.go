// Package transport provides the net/http implementation of the probe
// transport. It enforces per-attempt timeouts and the redirect policy,
// returns response headers in a stable display order, and classifies
// connection-level failures into typed errors.
package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/probekit/preflight/pkg/probe"
)

// DefaultMaxResponseSize caps how much of a response body is read (10MB).
const DefaultMaxResponseSize = 10 * 1024 * 1024

// Config holds settings for the HTTP transport.
type Config struct {
	// MaxResponseSize limits response body size in bytes.
	// Default: DefaultMaxResponseSize.
	MaxResponseSize int64
}

// HTTPTransport implements probe.Transport using net/http. Each Execute
// call builds its own client so per-attempt timeout and redirect policy
// apply cleanly, and releases the connection when the attempt finishes.
type HTTPTransport struct {
	config Config
}

// New creates an HTTP transport. A nil config uses defaults.
func New(cfg *Config) *HTTPTransport {
	c := Config{MaxResponseSize: DefaultMaxResponseSize}
	if cfg != nil && cfg.MaxResponseSize > 0 {
		c.MaxResponseSize = cfg.MaxResponseSize
	}
	return &HTTPTransport{config: c}
}

// Name returns the transport identifier.
func (t *HTTPTransport) Name() string { return "http" }

// Execute sends one request attempt. Any received HTTP response comes back
// with a nil error; failures that produced no response come back as a
// *probe.TransportError.
func (t *HTTPTransport) Execute(ctx context.Context, req *probe.Request) (*probe.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, nil)
	if err != nil {
		return nil, &probe.TransportError{
			Type:    probe.ErrorTypeInvalidRequest,
			Message: err.Error(),
			Cause:   err,
		}
	}

	for _, h := range req.Headers {
		httpReq.Header.Set(h.Name, h.Value)
	}

	client := &http.Client{
		Timeout:       req.Timeout,
		CheckRedirect: redirectPolicy(req.MaxRedirects),
	}
	defer client.CloseIdleConnections()

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, classifyFailure(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.config.MaxResponseSize))
	if err != nil {
		return nil, classifyFailure(err)
	}

	return &probe.Response{
		StatusCode: resp.StatusCode,
		Status:     reasonPhrase(resp),
		Headers:    orderedHeaders(resp.Header),
		Body:       body,
	}, nil
}

// redirectPolicy bounds redirect following. With max 0 any redirect is
// refused, which surfaces as a connection-level failure rather than an
// auto-followed request.
func redirectPolicy(max int) func(*http.Request, []*http.Request) error {
	return func(r *http.Request, via []*http.Request) error {
		if len(via) > max {
			return errors.New("redirect not followed: limit is " + strconv.Itoa(max))
		}
		return nil
	}
}

// classifyFailure maps a net/http error to a typed transport error. The
// message keeps the original error text so outcome classification can
// apply its text rules to it.
func classifyFailure(err error) *probe.TransportError {
	terr := &probe.TransportError{Message: err.Error(), Cause: err}

	switch {
	case errors.Is(err, context.Canceled):
		terr.Type = probe.ErrorTypeCancelled
	case errors.Is(err, context.DeadlineExceeded):
		terr.Type = probe.ErrorTypeTimeout
	case isNetTimeout(err):
		terr.Type = probe.ErrorTypeTimeout
	default:
		terr.Type = probe.ErrorTypeConnection
	}
	return terr
}

func isNetTimeout(err error) bool {
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

// reasonPhrase extracts the reason phrase from the status line, without the
// leading code ("Forbidden", not "403 Forbidden").
func reasonPhrase(resp *http.Response) string {
	phrase := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))
	return strings.TrimSpace(phrase)
}

// orderedHeaders converts a net/http header map to the ordered display
// form. net/http does not preserve wire order, so sorted canonical names
// define this transport's stable serialization order. Multi-valued headers
// join with ", ".
func orderedHeaders(h http.Header) []probe.Header {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	headers := make([]probe.Header, 0, len(names))
	for _, name := range names {
		headers = append(headers, probe.Header{
			Name:  name,
			Value: strings.Join(h.Values(name), ", "),
		})
	}
	return headers
}
