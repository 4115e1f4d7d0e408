// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shared

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/probekit/preflight/pkg/errors"
)

func TestExitError_Error(t *testing.T) {
	t.Run("message only", func(t *testing.T) {
		err := NewProbeFailedError("probe failed", nil)
		if err.Error() != "probe failed" {
			t.Errorf("Error() = %q", err.Error())
		}
	})

	t.Run("message with cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := NewProbeFailedError("probe failed", cause)
		if err.Error() != "probe failed: connection refused" {
			t.Errorf("Error() = %q", err.Error())
		}
	})
}

func TestExitError_Codes(t *testing.T) {
	tests := []struct {
		name string
		err  *ExitError
		code int
	}{
		{"probe failed", NewProbeFailedError("x", nil), ExitProbeFailed},
		{"invalid config", NewInvalidConfigError("x", nil), ExitInvalidConfig},
		{"missing input", NewMissingInputError("x", nil), ExitMissingInput},
		{"credential error", NewCredentialError("x", nil), ExitCredentialError},
		{"missing input non-interactive", NewMissingInputNonInteractiveError("x", nil), ExitMissingInputNonInteractive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %d, want %d", tt.err.Code, tt.code)
			}
		})
	}
}

func TestExitError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	exitErr := NewProbeFailedError("probe failed", cause)

	if unwrapped := errors.Unwrap(exitErr); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want the original cause", unwrapped)
	}
}

func TestExitError_WithUserVisibleCause(t *testing.T) {
	// ExitError wrapping a UserVisibleError keeps the suggestion reachable
	credErr := &pkgerrors.CredentialError{
		Source:      "keychain",
		Key:         "api_token",
		Message:     "secret not found",
		SuggestText: "store it with 'preflight secrets set api_token'",
	}

	exitErr := NewCredentialError("auth resolution failed", credErr)

	var userErr pkgerrors.UserVisibleError
	if !errors.As(exitErr, &userErr) {
		t.Fatal("errors.As should reach the UserVisibleError inside the ExitError")
	}

	if userErr.Suggestion() != "store it with 'preflight secrets set api_token'" {
		t.Errorf("Suggestion() = %q, want the cause's suggestion", userErr.Suggestion())
	}
}

func TestUserVisibleSuggestion_WrappedError(t *testing.T) {
	innerErr := &pkgerrors.ValidationError{
		Field:       "auth.type",
		Message:     "unknown auth type",
		SuggestText: "use one of: none, bearer, api_key, basic, custom_header",
	}

	wrappedErr := fmt.Errorf("loading probe file: %w", innerErr)

	// printSuggestion walks the chain; verify the chain carries the
	// suggestion through plain fmt wrapping.
	var valErr *pkgerrors.ValidationError
	if !errors.As(wrappedErr, &valErr) {
		t.Fatal("expected to unwrap ValidationError from wrapped error")
	}

	if valErr.Suggestion() == "" {
		t.Error("expected suggestion from wrapped error")
	}
}

func TestUserVisibleSuggestion_NonUserVisibleError(t *testing.T) {
	plainErr := errors.New("short write")

	var userErr pkgerrors.UserVisibleError
	if errors.As(plainErr, &userErr) {
		t.Error("a plain error must not satisfy UserVisibleError")
	}
}
