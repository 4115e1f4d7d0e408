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
	"os"

	"golang.org/x/term"
)

// ciIndicator names an environment variable that marks a CI runner.
// Boolean-style variables count when set to "true" or "1"; variables
// flagged anyValue count whenever they are non-empty (Jenkins exports
// JENKINS_HOME as a path, not a boolean).
type ciIndicator struct {
	name     string
	anyValue bool
}

var ciIndicators = []ciIndicator{
	{name: "CI"},
	{name: "GITHUB_ACTIONS"},
	{name: "GITLAB_CI"},
	{name: "CIRCLECI"},
	{name: "JENKINS_HOME", anyValue: true},
}

// IsNonInteractive reports whether prompting the user would hang or fail.
// PREFLIGHT_NON_INTERACTIVE=true forces non-interactive mode, a detected
// CI environment implies it, and a stdin that is not a terminal decides
// it otherwise. Callers that also honor a --non-interactive flag check
// the flag first.
func IsNonInteractive() bool {
	if os.Getenv("PREFLIGHT_NON_INTERACTIVE") == "true" {
		return true
	}
	if isCIEnvironment() {
		return true
	}
	return !term.IsTerminal(int(os.Stdin.Fd()))
}

// isCIEnvironment reports whether any known CI indicator is present.
func isCIEnvironment() bool {
	for _, indicator := range ciIndicators {
		value := os.Getenv(indicator.name)
		if value == "" {
			continue
		}
		if indicator.anyValue || value == "true" || value == "1" {
			return true
		}
	}
	return false
}
