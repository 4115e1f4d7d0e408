package probe

import (
	"time"
)

// Default values applied by DefaultRequestConfig. Callers that build a
// RequestConfig by hand opt out of them.
const (
	// DefaultAccept is the default Accept header value.
	DefaultAccept = "application/json"

	// DefaultUserAgent identifies this tool to probed servers.
	DefaultUserAgent = "preflight/1.0"

	// DefaultTimeout bounds a single attempt. Zero disables the timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRetryDelay is the pause between retry attempts.
	DefaultRetryDelay = 1 * time.Second

	// maxRedirects bounds redirect following when it is enabled.
	maxRedirects = 32
)

// AuthType selects one of the five authentication schemes.
type AuthType string

const (
	// AuthNone sends no authentication header.
	AuthNone AuthType = "none"

	// AuthBearer sends "Authorization: Bearer <token>".
	AuthBearer AuthType = "bearer"

	// AuthAPIKey sends "X-API-Key: <token>".
	AuthAPIKey AuthType = "api_key"

	// AuthBasic sends "Authorization: Basic <base64(username:password)>".
	AuthBasic AuthType = "basic"

	// AuthCustomHeader sends "<header name>: <token>".
	AuthCustomHeader AuthType = "custom_header"
)

// AuthScheme is a closed tagged union over the supported authentication
// schemes. Type selects the variant; the other fields carry that variant's
// payload and are ignored by the rest. Exactly one scheme applies per
// invocation.
type AuthScheme struct {
	// Type selects the scheme. Empty is treated as AuthNone.
	Type AuthType

	// Token is the credential for bearer, api_key, and custom_header.
	Token string

	// Username and Password apply to basic auth. The password may be empty;
	// basic auth is skipped only when the username is empty.
	Username string
	Password string

	// HeaderName is the header to set for custom_header auth.
	HeaderName string
}

// RequestConfig is the immutable per-invocation snapshot of everything the
// caller supplies. Run copies it at activation; the copy is read-only for
// the lifetime of the invocation, including retries.
type RequestConfig struct {
	// URL is the direct request URL. When non-empty it wins verbatim over
	// BaseURL and Path.
	URL string

	// BaseURL and Path are joined with a single "/" when URL is empty
	// (trailing "/" stripped from BaseURL, leading "/" stripped from Path).
	BaseURL string
	Path    string

	// Auth selects the authentication scheme and carries its credentials.
	Auth AuthScheme

	// Headers holds custom headers, one "Name: Value" per line. Lines
	// without ":" are skipped.
	Headers string

	// Query holds query parameters, one "key=value" per line. Lines without
	// "=" are skipped; keys and values are percent-encoded.
	Query string

	// Accept is sent as the Accept header when non-empty.
	Accept string

	// UserAgent is sent as the User-Agent header when non-empty.
	UserAgent string

	// Timeout bounds a single attempt. Zero disables the timeout entirely.
	Timeout time.Duration

	// FollowRedirects enables bounded redirect following. When false, a
	// redirect is refused and the attempt fails instead of being followed.
	FollowRedirects bool

	// MaxRetries bounds re-attempts after timeout or network-error
	// outcomes. Zero never retries.
	MaxRetries int

	// RetryDelay is the pause before each re-attempt.
	RetryDelay time.Duration

	// Console logging toggles. They affect log output only, never
	// classification, slots, or signals.
	LogRequests   bool
	LogResponses  bool
	VerboseErrors bool
}

// DefaultRequestConfig returns a RequestConfig with the documented
// defaults: JSON accept header, 30s timeout, redirect following on, no
// retries, 1s retry delay.
func DefaultRequestConfig() *RequestConfig {
	return &RequestConfig{
		Accept:          DefaultAccept,
		UserAgent:       DefaultUserAgent,
		Timeout:         DefaultTimeout,
		FollowRedirects: true,
		MaxRetries:      0,
		RetryDelay:      DefaultRetryDelay,
	}
}

// snapshot returns the per-invocation copy of the configuration with
// nonsense values clamped. A nil receiver yields the defaults.
func (c *RequestConfig) snapshot() RequestConfig {
	if c == nil {
		return *DefaultRequestConfig()
	}
	cp := *c
	if cp.Timeout < 0 {
		cp.Timeout = 0
	}
	if cp.MaxRetries < 0 {
		cp.MaxRetries = 0
	}
	if cp.RetryDelay < 0 {
		cp.RetryDelay = 0
	}
	return cp
}
