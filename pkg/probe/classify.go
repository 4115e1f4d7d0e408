package probe

import (
	"errors"
	"fmt"
	"strings"
)

// classify maps one completed attempt to exactly one outcome.
//
// Precedence: a received response is inspected by status code (2xx success,
// 4xx client error, 5xx server error, anything else an unclassified
// failure); a connection-level failure whose text contains "timeout" is a
// timeout; any other connection-level failure is a network error; every
// remaining failure is unclassified and surfaces immediately without retry.
func classify(resp *Response, err error) Outcome {
	if err != nil {
		return classifyError(err)
	}
	return classifyResponse(resp)
}

func classifyResponse(resp *Response) Outcome {
	outcome := Outcome{
		StatusCode: resp.StatusCode,
		StatusText: StatusText(resp.StatusCode),
		Body:       string(resp.Body),
		Headers:    resp.Headers,
	}

	// The reason phrase from the wire feeds the error message; fall back to
	// the lookup table when the transport did not carry one.
	reason := resp.Status
	if reason == "" {
		reason = StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		outcome.Kind = OutcomeSuccess

	case resp.StatusCode >= 400 && resp.StatusCode <= 499:
		outcome.Kind = OutcomeClientError
		outcome.Message = fmt.Sprintf("Client Error %d: %s", resp.StatusCode, reason)

	case resp.StatusCode >= 500 && resp.StatusCode <= 599:
		outcome.Kind = OutcomeServerError
		outcome.Message = fmt.Sprintf("Server Error %d: %s", resp.StatusCode, reason)

	default:
		// 1xx or an unfollowed 3xx: no classification bucket matches, so it
		// surfaces like any other unclassified result.
		outcome.Kind = OutcomeNetworkError
		outcome.Message = "Error: " + reason
	}
	return outcome
}

func classifyError(err error) Outcome {
	var terr *TransportError
	if errors.As(err, &terr) {
		switch terr.Type {
		case ErrorTypeTimeout:
			return Outcome{Kind: OutcomeTimeout, Message: "Request timeout", Retryable: true}

		case ErrorTypeConnection:
			if isTimeoutText(terr) {
				return Outcome{Kind: OutcomeTimeout, Message: "Request timeout", Retryable: true}
			}
			return Outcome{
				Kind:      OutcomeNetworkError,
				Message:   "Network Error: " + terr.Message,
				Retryable: true,
			}
		}
	}

	// Cancelled contexts, unsendable requests, and anything a transport
	// failed to type: report immediately, never retry.
	return Outcome{
		Kind:    OutcomeNetworkError,
		Message: "Error: " + err.Error(),
	}
}

// isTimeoutText applies the timeout identification rule to a
// connection-level failure: the error text (or its cause's text) contains
// the substring "timeout".
func isTimeoutText(terr *TransportError) bool {
	if strings.Contains(terr.Message, "timeout") {
		return true
	}
	return terr.Cause != nil && strings.Contains(terr.Cause.Error(), "timeout")
}
