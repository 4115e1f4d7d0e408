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

package prompt

import (
	"fmt"
	"unicode"
)

// MaxInputSize bounds a single prompt answer, in bytes.
const MaxInputSize = 64 << 10

// scanInput rejects oversized input, null bytes, and control characters.
// Line breaks and tabs survive only when allowBreaks is set.
func scanInput(input string, allowBreaks bool) error {
	if len(input) > MaxInputSize {
		return fmt.Errorf("input is too long (limit %d bytes)", MaxInputSize)
	}

	for i, r := range input {
		if r == 0 {
			return fmt.Errorf("null byte at offset %d", i)
		}
		if !unicode.IsControl(r) {
			continue
		}
		if allowBreaks && (r == '\n' || r == '\r' || r == '\t') {
			continue
		}
		return fmt.Errorf("control character %q at offset %d", r, i)
	}

	return nil
}

// ValidateString validates a plain string input such as a username.
func ValidateString(input string) error {
	return scanInput(input, true)
}

// ValidateSecret validates a credential input. Credentials travel in HTTP
// header values, so every control character (line breaks included) is
// rejected, and an empty secret is an error.
func ValidateSecret(input string) error {
	if input == "" {
		return fmt.Errorf("input is empty")
	}
	return scanInput(input, false)
}
