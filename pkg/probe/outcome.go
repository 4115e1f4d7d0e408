package probe

// Signal names the terminal event of an invocation. Exactly one fires per
// Run, after all retries are resolved.
type Signal string

const (
	SignalSuccess      Signal = "success"
	SignalClientError  Signal = "client-error"
	SignalServerError  Signal = "server-error"
	SignalNetworkError Signal = "network-error"
	SignalTimeout      Signal = "timeout"
)

// SignalEmitter receives the terminal signal of an invocation. A nil
// emitter binding means the signal is silently not fired.
type SignalEmitter interface {
	Emit(signal Signal)
}

// EmitterFunc adapts a function to the SignalEmitter interface.
type EmitterFunc func(Signal)

// Emit calls the underlying function.
func (f EmitterFunc) Emit(signal Signal) { f(signal) }

// OutcomeKind is the classification of one attempt.
type OutcomeKind string

const (
	// OutcomeSuccess is a 2xx response.
	OutcomeSuccess OutcomeKind = "success"

	// OutcomeClientError is a 4xx response.
	OutcomeClientError OutcomeKind = "client_error"

	// OutcomeServerError is a 5xx response.
	OutcomeServerError OutcomeKind = "server_error"

	// OutcomeNetworkError is a connection-level failure, or any
	// unclassified failure (the latter is never retried).
	OutcomeNetworkError OutcomeKind = "network_error"

	// OutcomeTimeout is a connection-level failure identified as a timeout.
	OutcomeTimeout OutcomeKind = "timeout"
)

// Outcome is the classified result of one attempt. Kind selects the
// variant; Retryable routes timeout and network-error outcomes into the
// retry loop. Response fields are populated only when a response was
// received.
type Outcome struct {
	Kind OutcomeKind

	// StatusCode, StatusText, Body, and Headers carry the received
	// response. They stay zero for timeout and network-error outcomes,
	// where no response exists.
	StatusCode int
	StatusText string
	Body       string
	Headers    []Header

	// Message is the error-message slot value. Empty for success.
	Message string

	// Retryable marks connection-level failures eligible for the retry
	// loop. Unclassified failures carry Retryable=false and surface
	// immediately.
	Retryable bool
}

// HasResponse reports whether a response was received for this outcome.
func (o *Outcome) HasResponse() bool {
	switch o.Kind {
	case OutcomeSuccess, OutcomeClientError, OutcomeServerError:
		return true
	}
	return o.StatusCode != 0
}

// Header looks up a response header by name, case-insensitively. Returns
// false when the header is absent or no response was received.
func (o *Outcome) Header(name string) (string, bool) {
	return headerValue(o.Headers, name)
}

// Signal maps the outcome to its terminal signal.
func (o *Outcome) Signal() Signal {
	switch o.Kind {
	case OutcomeSuccess:
		return SignalSuccess
	case OutcomeClientError:
		return SignalClientError
	case OutcomeServerError:
		return SignalServerError
	case OutcomeTimeout:
		return SignalTimeout
	default:
		return SignalNetworkError
	}
}
