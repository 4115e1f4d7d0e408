package probe

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Prober executes OPTIONS probes through a Transport. A single Prober is
// safe for concurrent use; every Run is an independent invocation with its
// own configuration snapshot and retry state.
type Prober struct {
	transport Transport
	logger    *slog.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prober) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Prober on top of the given transport.
func New(transport Transport, opts ...Option) (*Prober, error) {
	if transport == nil {
		return nil, errors.New("probe: transport is required")
	}
	p := &Prober{
		transport: transport,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Result summarizes a finished invocation for hosts that prefer a return
// value over slot bindings. The same data flows through the slots.
type Result struct {
	// ID uniquely identifies the invocation.
	ID string

	// URL is the composed request URL.
	URL string

	// Signal is the terminal signal that fired.
	Signal Signal

	// Outcome is the final attempt's classification.
	Outcome Outcome

	// Attempts counts attempts made, retries included.
	Attempts int

	// ElapsedMS is the final attempt's duration in milliseconds.
	ElapsedMS int64
}

// attemptState tracks the mutable counters of one invocation. The retry
// count is zeroed once at activation and persists across that invocation's
// retries.
type attemptState struct {
	retryCount int
	elapsedMS  int64
}

// Run executes one invocation to completion: it issues the OPTIONS request,
// retries timeout and network-error outcomes up to the configured bound,
// writes every bound output slot, and fires exactly one terminal signal.
//
// Run never returns an error: all failures are classified into outcomes and
// reported through the error slot and the terminal signal.
func (p *Prober) Run(ctx context.Context, cfg *RequestConfig, binds *Bindings) *Result {
	snapshot := cfg.snapshot()
	state := &attemptState{}
	id := uuid.NewString()

	logger := p.logger.With(
		slog.String("component", "probe"),
		slog.String("invocation_id", id),
	)

	var outcome Outcome
	for {
		outcome = p.attempt(ctx, &snapshot, state, binds, logger)

		if outcome.Retryable && state.retryCount < snapshot.MaxRetries {
			state.retryCount++
			retriesTotal.Inc()
			logger.Debug("retrying after failure",
				slog.String("outcome", string(outcome.Kind)),
				slog.Int("retry", state.retryCount),
				slog.Int("max_retries", snapshot.MaxRetries),
				slog.Duration("delay", snapshot.RetryDelay))

			select {
			case <-time.After(snapshot.RetryDelay):
				continue
			case <-ctx.Done():
				// The invocation still terminates with the pending
				// outcome's signal; there is no separate cancel signal.
			}
		}
		break
	}

	signal := outcome.Signal()
	binds.emit(signal)
	recordInvocation(signal)

	if snapshot.VerboseErrors && outcome.Message != "" {
		logger.Warn("probe finished with error",
			slog.String("signal", string(signal)),
			slog.String("message", outcome.Message),
			slog.Int("attempts", state.retryCount+1))
	}

	return &Result{
		ID:        id,
		URL:       BuildURL(&snapshot),
		Signal:    signal,
		Outcome:   outcome,
		Attempts:  state.retryCount + 1,
		ElapsedMS: state.elapsedMS,
	}
}

// attempt issues a single OPTIONS request and resolves it to an outcome.
// Every attempt rebuilds the URL and headers from the snapshot and writes
// the bound slots; under retry, later writes win.
func (p *Prober) attempt(ctx context.Context, cfg *RequestConfig, state *attemptState, binds *Bindings, logger *slog.Logger) Outcome {
	requestURL := BuildURL(cfg)

	redirects := 0
	if cfg.FollowRedirects {
		redirects = maxRedirects
	}
	req := &Request{
		Method:       "OPTIONS",
		URL:          requestURL,
		Headers:      BuildHeaders(cfg),
		Timeout:      cfg.Timeout,
		MaxRedirects: redirects,
	}

	if cfg.LogRequests {
		logger.Info("sending request",
			slog.String("method", req.Method),
			slog.String("url", requestURL),
			slog.Int("headers", len(req.Headers)))
	}

	start := time.Now()
	resp, err := p.transport.Execute(ctx, req)
	elapsed := time.Since(start)

	state.elapsedMS = elapsed.Milliseconds()
	binds.slots().ElapsedMS.Set(state.elapsedMS)

	outcome := classify(resp, err)
	applyOutcome(binds.slots(), &outcome)
	attemptDuration.WithLabelValues(string(outcome.Kind)).Observe(elapsed.Seconds())

	if cfg.LogResponses {
		if outcome.HasResponse() {
			logger.Info("received response",
				slog.Int("status", outcome.StatusCode),
				slog.String("status_text", outcome.StatusText),
				slog.Int("body_bytes", len(outcome.Body)),
				slog.Int64("duration_ms", state.elapsedMS))
		} else {
			logger.Info("request failed",
				slog.String("outcome", string(outcome.Kind)),
				slog.String("message", outcome.Message),
				slog.Int64("duration_ms", state.elapsedMS))
		}
	}

	return outcome
}

// applyOutcome writes the outcome into the bound slots. Response slots
// populate for every received response, before any branching on status
// code; timeout and network-error outcomes touch only the error slot.
func applyOutcome(slots *OutputSlots, outcome *Outcome) {
	if outcome.HasResponse() {
		slots.StatusCode.Set(outcome.StatusCode)
		slots.StatusText.Set(outcome.StatusText)
		slots.Body.Set(outcome.Body)
		slots.Headers.Set(FormatHeaders(outcome.Headers))

		if v, ok := outcome.Header("Allow"); ok {
			slots.AllowedMethods.Set(v)
		}
		if v, ok := outcome.Header("Access-Control-Allow-Headers"); ok {
			slots.AllowedHeaders.Set(v)
		}
		if v, ok := outcome.Header("Access-Control-Max-Age"); ok {
			slots.MaxAge.Set(v)
		}
	}

	if outcome.Message != "" {
		slots.Error.Set(outcome.Message)
	}
}
