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

package errors

// UserVisibleError is implemented by errors whose message and suggestion
// are written for the person running the CLI rather than for a log file.
//
// The command layer walks error chains looking for this interface: when a
// probe file fails validation or a credential cannot be resolved, the
// wrapped ValidationError or CredentialError supplies the friendly message
// and the "Suggestion:" line printed under it.
type UserVisibleError interface {
	error

	// IsUserVisible reports whether the message is safe and useful to show.
	// Errors carrying internal detail return false and render generically.
	IsUserVisible() bool

	// UserMessage is the display message, free of Go error-chain prefixes.
	UserMessage() string

	// Suggestion is an actionable next step, or "" when there is none.
	Suggestion() string
}
