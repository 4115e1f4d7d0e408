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

// Package errors defines the typed errors shared across preflight's
// packages: validation failures in probe files and flags, credential
// resolution failures, and configuration problems. Each type carries the
// fields its callers branch on; display formatting stays in the CLI.
package errors

import "fmt"

// ValidationError reports invalid user input: a bad flag value, a probe
// file field that fails its constraint, a malformed expectation.
type ValidationError struct {
	// Field names the offending input ("auth.type", "probes[2].url").
	// Empty when the problem is not tied to one field.
	Field string

	// Message describes the constraint that was violated.
	Message string

	// SuggestText tells the user how to fix the input, when known.
	SuggestText string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// IsUserVisible is always true: validation messages are written for users.
func (e *ValidationError) IsUserVisible() bool { return true }

// UserMessage returns the violation description without the field prefix.
func (e *ValidationError) UserMessage() string { return e.Message }

// Suggestion returns the fix-it guidance, or "".
func (e *ValidationError) Suggestion() string { return e.SuggestText }

// CredentialError reports a failure to obtain a credential: a secret
// backend miss, a locked keychain, a token endpoint rejection.
type CredentialError struct {
	// Source is the mechanism that failed: "env", "keychain", "file",
	// "oauth2", or "chain" when no backend held the key.
	Source string

	// Key is the secret key or reference that was being resolved.
	Key string

	// StatusCode is set when an OAuth2 token endpoint answered with an
	// HTTP error; zero otherwise.
	StatusCode int

	// Message describes the failure.
	Message string

	// SuggestText tells the user how to provide the credential.
	SuggestText string

	// Cause is the backend or transport error underneath, if any.
	Cause error
}

func (e *CredentialError) Error() string {
	msg := fmt.Sprintf("credential %s error", e.Source)
	if e.Key != "" {
		msg = fmt.Sprintf("%s for %q", msg, e.Key)
	}
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s [HTTP %d]", msg, e.StatusCode)
	}
	return msg + ": " + e.Message
}

// Unwrap exposes the underlying backend error to errors.Is/As.
func (e *CredentialError) Unwrap() error { return e.Cause }

// IsUserVisible is always true: the user owns the credential setup.
func (e *CredentialError) IsUserVisible() bool { return true }

// UserMessage returns the failure description.
func (e *CredentialError) UserMessage() string { return e.Message }

// Suggestion returns guidance for providing the credential, or "".
func (e *CredentialError) Suggestion() string { return e.SuggestText }

// ConfigError reports a problem in the app config file or a probe file:
// unreadable file, parse failure, or an invalid value.
type ConfigError struct {
	// Key locates the problem ("log.level", "probes[0].auth"); empty when
	// it concerns the whole file.
	Key string

	// Reason explains what is wrong.
	Reason string

	// Cause is the read or parse error underneath, if any.
	Cause error
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return "config error: " + e.Reason
	}
	return fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
}

// Unwrap exposes the underlying error to errors.Is/As.
func (e *ConfigError) Unwrap() error { return e.Cause }
