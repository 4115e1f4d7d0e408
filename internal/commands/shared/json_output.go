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
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	pkgerrors "github.com/probekit/preflight/pkg/errors"
)

// EmitJSONTo renders v as indented JSON on the command's output stream.
// Commands route documents through the command writer, not os.Stdout, so
// tests can capture them.
func EmitJSONTo(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	cmd.Println(string(out))
	return nil
}

// JSONError is the structured error document written to stderr when
// --json is set. Documents stay on stdout; errors stay on stderr, just
// machine-readable.
type JSONError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// JSONErrorFromExitError builds the error document for an exit error,
// carrying the suggestion of any user-visible cause.
func JSONErrorFromExitError(exitErr *ExitError) JSONError {
	jsonErr := JSONError{
		Code:    errorCodeFor(exitErr),
		Message: exitErr.Error(),
	}

	var userErr pkgerrors.UserVisibleError
	if errors.As(exitErr.Cause, &userErr) && userErr.IsUserVisible() {
		jsonErr.Suggestion = userErr.Suggestion()
	}
	return jsonErr
}

// WriteJSONError writes the error document to w.
func WriteJSONError(w io.Writer, jsonErr JSONError) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(jsonErr)
}
