// Package probe implements single-shot HTTP OPTIONS probing with
// authentication injection, URL and query composition, bounded retry, and
// outcome classification.
//
// A Prober issues one probe per Run call. Each invocation composes the
// request from a RequestConfig snapshot, executes it through a Transport,
// classifies the result into one of five outcomes (success, client error,
// server error, network error, timeout), retries timeout and network
// failures up to the configured bound, writes results to the bound output
// slots, and fires exactly one terminal signal.
//
// The package is transport-agnostic: callers supply any Transport
// implementation. The production implementation backed by net/http lives in
// internal/transport.
package probe
