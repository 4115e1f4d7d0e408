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

package token

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/probekit/preflight/internal/commands/shared"
	"github.com/probekit/preflight/internal/secrets"
)

// reservedClaims have dedicated flags or are set by the command itself.
var reservedClaims = map[string]string{
	"sub": "--subject",
	"iss": "--issuer",
	"aud": "--audience",
	"exp": "--ttl",
	"iat": "",
	"jti": "",
}

type tokenDocument struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func runToken(cmd *cobra.Command, opts *options) error {
	ctx := cmd.Context()

	if opts.secret != "" && opts.secretRef != "" {
		return shared.NewInvalidConfigError("--secret and --secret-ref are mutually exclusive", nil)
	}
	if opts.secret == "" && opts.secretRef == "" {
		return shared.NewMissingInputError("a signing secret is required: pass --secret or --secret-ref", nil)
	}
	if opts.ttl <= 0 {
		return shared.NewInvalidConfigError("--ttl must be positive", nil)
	}

	custom, err := parseClaims(opts.claims)
	if err != nil {
		return shared.NewInvalidConfigError(err.Error(), err)
	}

	secret := opts.secret
	if opts.secretRef != "" {
		ref := strings.TrimPrefix(opts.secretRef, "secret://")
		secret, err = secrets.DefaultChain().Get(ctx, ref)
		if err != nil {
			return shared.NewCredentialError(fmt.Sprintf("failed to resolve signing secret %q", ref), err)
		}
	}

	now := time.Now()
	expiry := now.Add(opts.ttl)

	claims := jwt.MapClaims{
		"iat": jwt.NewNumericDate(now),
		"exp": jwt.NewNumericDate(expiry),
		"jti": uuid.NewString(),
	}
	if opts.subject != "" {
		claims["sub"] = opts.subject
	}
	if opts.issuer != "" {
		claims["iss"] = opts.issuer
	}
	switch len(opts.audience) {
	case 0:
	case 1:
		claims["aud"] = opts.audience[0]
	default:
		claims["aud"] = opts.audience
	}
	for key, value := range custom {
		claims[key] = value
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	if shared.GetJSON() {
		out, err := json.MarshalIndent(tokenDocument{Token: signed, ExpiresAt: expiry}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode token document: %w", err)
		}
		cmd.Println(string(out))
		return nil
	}

	// Bare token only, so $(preflight token ...) substitutes cleanly.
	cmd.Println(signed)
	return nil
}

// parseClaims turns key=value pairs into claim values. Values are decoded
// as JSON when possible and kept as strings otherwise.
func parseClaims(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	claims := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid claim %q, expected key=value", pair)
		}
		if flag, reserved := reservedClaims[key]; reserved {
			if flag != "" {
				return nil, fmt.Errorf("claim %q is reserved, use %s", key, flag)
			}
			return nil, fmt.Errorf("claim %q is set automatically", key)
		}

		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		claims[key] = value
	}
	return claims, nil
}
