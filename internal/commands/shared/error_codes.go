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

// Machine-readable error codes carried in the "code" field of JSON
// error output. The leading digit groups them by failure area.
const (
	// E0xx: probe file validation
	ErrorCodeMissingField     = "E001" // Missing required field
	ErrorCodeInvalidYAML      = "E002" // Invalid YAML syntax
	ErrorCodeSchemaViolation  = "E003" // Schema constraint violation
	ErrorCodeInvalidReference = "E004" // Invalid reference (unknown probe name)

	// E1xx: probe execution
	ErrorCodeProbeFailed       = "E101" // Probe reported a failure signal
	ErrorCodeProbeTimeout      = "E102" // Probe timed out
	ErrorCodeExpectationFailed = "E103" // Expectation expression was false

	// E2xx: configuration and secrets
	ErrorCodeConfigNotFound = "E201" // Config file not found
	ErrorCodeInvalidConfig  = "E202" // Invalid configuration
	ErrorCodeMissingSecret  = "E203" // Secret reference could not be resolved

	// E3xx: user input
	ErrorCodeMissingInput = "E301" // Required input missing
	ErrorCodeInvalidInput = "E302" // Invalid input format
	ErrorCodeFileNotFound = "E303" // File not found

	// E4xx: resources and internals
	ErrorCodeNotFound        = "E401" // Resource not found
	ErrorCodeInternal        = "E402" // Internal error
	ErrorCodeExecutionFailed = "E403" // Execution failed
)

// errorCodeFor picks the JSON error code reported for an exit class.
func errorCodeFor(exitErr *ExitError) string {
	if exitErr == nil {
		return ""
	}

	switch exitErr.Code {
	case ExitInvalidConfig:
		return ErrorCodeSchemaViolation
	case ExitMissingInput, ExitMissingInputNonInteractive:
		return ErrorCodeMissingInput
	case ExitCredentialError:
		return ErrorCodeMissingSecret
	case ExitProbeFailed:
		return ErrorCodeProbeFailed
	default:
		return ErrorCodeProbeFailed
	}
}
