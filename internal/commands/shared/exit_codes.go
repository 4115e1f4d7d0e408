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
	"os"

	pkgerrors "github.com/probekit/preflight/pkg/errors"
)

// Exit codes for preflight commands
const (
	ExitSuccess                    = 0
	ExitProbeFailed                = 1
	ExitInvalidConfig              = 2
	ExitMissingInput               = 3
	ExitCredentialError            = 4
	ExitMissingInputNonInteractive = 70 // sysexits.h EX_SOFTWARE: input required but no TTY to ask on
)

// ExitError pairs a message with the process exit code it should produce.
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewProbeFailedError marks a probe execution failure (exit 1).
func NewProbeFailedError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitProbeFailed, Message: msg, Cause: cause}
}

// NewInvalidConfigError marks a bad probe file or configuration (exit 2).
func NewInvalidConfigError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitInvalidConfig, Message: msg, Cause: cause}
}

// NewMissingInputError marks required input that was not given (exit 3).
func NewMissingInputError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitMissingInput, Message: msg, Cause: cause}
}

// NewCredentialError marks a credential resolution failure (exit 4).
func NewCredentialError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitCredentialError, Message: msg, Cause: cause}
}

// NewMissingInputNonInteractiveError is NewMissingInputError for sessions
// without a TTY, where prompting is impossible (exit 70).
func NewMissingInputNonInteractiveError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitMissingInputNonInteractive, Message: msg, Cause: cause}
}

// HandleExitError checks if an error is an ExitError and exits with the
// appropriate code. With --json the message goes to stderr as a JSONError
// document instead of prose. An ExitError with an empty message exits
// silently; the command already rendered what went wrong.
func HandleExitError(err error) {
	if err == nil {
		return
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if len(exitErr.Error()) > 0 {
			reportExitError(err, JSONErrorFromExitError(exitErr))
		}
		os.Exit(exitErr.Code)
	}

	// Errors without an exit code exit as probe failures.
	reportExitError(err, JSONError{Code: ErrorCodeExecutionFailed, Message: err.Error()})
	os.Exit(ExitProbeFailed)
}

// reportExitError writes the failure to stderr: a JSONError document
// under --json, prose plus any suggestion otherwise.
func reportExitError(err error, doc JSONError) {
	if GetJSON() {
		_ = WriteJSONError(os.Stderr, doc)
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", doc.Message)
	printSuggestion(err)
}

// printSuggestion prints the suggestion of the first user-visible error
// in the chain, if it carries one.
func printSuggestion(err error) {
	var userErr pkgerrors.UserVisibleError
	if !errors.As(err, &userErr) || !userErr.IsUserVisible() {
		return
	}
	if s := userErr.Suggestion(); s != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", s)
	}
}
