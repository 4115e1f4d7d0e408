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

package secrets

import (
	"fmt"
	"regexp"

	preflighterrors "github.com/probekit/preflight/pkg/errors"
)

// MaxKeyLength bounds secret key names. Keychain entries and environment
// variable names both degrade with very long identifiers.
const MaxKeyLength = 128

// keyPattern matches valid secret keys: lowercase alphanumerics separated
// by single hyphens, underscores, dots, or slashes.
var keyPattern = regexp.MustCompile(`^[a-z0-9]+(?:[-_./][a-z0-9]+)*$`)

// ValidateKey checks a secret key name before storage or resolution.
// Keys are the <key> part of secret://<key> references, so the same rules
// apply at both ends.
func ValidateKey(key string) error {
	if key == "" {
		return &preflighterrors.ValidationError{
			Field:       "key",
			Message:     "secret key must not be empty",
			SuggestText: "name the secret, e.g. github-token",
		}
	}

	if len(key) > MaxKeyLength {
		return &preflighterrors.ValidationError{
			Field:       "key",
			Message:     fmt.Sprintf("secret key exceeds %d characters", MaxKeyLength),
			SuggestText: "use a shorter name",
		}
	}

	if !keyPattern.MatchString(key) {
		return &preflighterrors.ValidationError{
			Field:       "key",
			Message:     fmt.Sprintf("invalid secret key %q", key),
			SuggestText: "use lowercase letters, digits, and single - _ . / separators, e.g. payments/api-token",
		}
	}

	return nil
}
