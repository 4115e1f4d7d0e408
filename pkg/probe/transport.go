package probe

import (
	"context"
	"fmt"
	"time"
)

// Transport executes a single request attempt. Implementations handle
// socket I/O, TLS, timeout enforcement, and redirect policy.
//
// A received HTTP response, whatever its status code, is returned as a
// Response with a nil error; protocol-level statuses are classified by the
// prober, not the transport. Errors are returned only for failures that
// produced no response, as a *TransportError.
type Transport interface {
	// Execute sends the request and returns the response. The context
	// carries cancellation; the request carries the per-attempt timeout and
	// redirect policy.
	Execute(ctx context.Context, req *Request) (*Response, error)

	// Name returns the transport identifier (e.g. "http").
	Name() string
}

// Request is a single probe attempt's request.
type Request struct {
	// Method is the HTTP method. The prober always sends OPTIONS.
	Method string

	// URL is the full request URL.
	URL string

	// Headers apply in order; a later duplicate name replaces an earlier
	// one.
	Headers []Header

	// Timeout bounds the whole attempt. Zero means no timeout.
	Timeout time.Duration

	// MaxRedirects bounds redirect following. Zero disables following: a
	// redirect is refused and surfaces as a connection-level failure.
	MaxRedirects int
}

// Response is the transport-level result of an attempt.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Status is the reason phrase from the status line, without the code
	// ("Forbidden", not "403 Forbidden"). May be empty.
	Status string

	// Headers hold the response headers in the transport's serialization
	// order.
	Headers []Header

	// Body is the full response body.
	Body []byte
}

// Header returns the named response header, case-insensitively.
func (r *Response) Header(name string) (string, bool) {
	return headerValue(r.Headers, name)
}

// ErrorType classifies transport failures for outcome routing.
type ErrorType string

const (
	// ErrorTypeConnection indicates a network-level failure: DNS, refused
	// connection, reset, TLS.
	ErrorTypeConnection ErrorType = "connection"

	// ErrorTypeTimeout indicates the attempt exceeded its deadline.
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeCancelled indicates the context was cancelled.
	ErrorTypeCancelled ErrorType = "cancelled"

	// ErrorTypeInvalidRequest indicates the request could not be built or
	// sent as specified.
	ErrorTypeInvalidRequest ErrorType = "invalid_request"
)

// TransportError is a structured failure from transport execution. All
// Transport implementations return *TransportError so the classifier can
// route on Type.
type TransportError struct {
	// Type classifies the failure.
	Type ErrorType

	// Message is a human-readable description, safe to surface.
	Message string

	// Cause carries the wrapped transport-level error, when one exists.
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap exposes Cause so errors.Is and errors.As see through the wrapper.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// IsType reports whether the error is of the given type.
func (e *TransportError) IsType(t ErrorType) bool {
	return e.Type == t
}
