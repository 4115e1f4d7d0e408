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

// Package token implements the token command: short-lived HS256 test
// tokens for probing endpoints that sit behind bearer auth.
package token

import (
	"time"

	"github.com/spf13/cobra"
)

type options struct {
	secret    string
	secretRef string
	subject   string
	issuer    string
	audience  []string
	ttl       time.Duration
	claims    []string
}

// NewCommand creates the token command.
func NewCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a signed test token",
		Long: `Mint an HS256-signed JWT for probing authenticated endpoints.

The signing secret comes from --secret (a literal value) or --secret-ref
(a key resolved through the secrets backend chain: environment, keychain,
encrypted file). Text output is the bare token so it drops straight into
a shell substitution; --json adds the expiry.

Custom claims are key=value pairs. Values that parse as JSON are
embedded typed, everything else becomes a string, so --claim level=3
yields a number and --claim 'scopes=["read","write"]' an array.

Exit codes:
  0  token minted
  2  invalid flags or claims
  3  no signing secret given
  4  secret reference could not be resolved

Examples:
  # Token signed with a literal secret
  preflight token --secret dev-secret --subject smoke-test

  # Secret from the backend chain, custom claims
  preflight token --secret-ref jwt-signing-key --issuer preflight --claim role=admin

  # Feed it straight into a probe
  preflight check https://api.example.com/v1/users \
      --token "$(preflight token --secret dev-secret)"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.secret, "secret", "", "literal signing secret")
	cmd.Flags().StringVar(&opts.secretRef, "secret-ref", "", "signing secret key in the secrets backend chain")
	cmd.Flags().StringVar(&opts.subject, "subject", "", "sub claim")
	cmd.Flags().StringVar(&opts.issuer, "issuer", "preflight", "iss claim")
	cmd.Flags().StringArrayVar(&opts.audience, "audience", nil, "aud claim (repeatable)")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", time.Hour, "token lifetime")
	cmd.Flags().StringArrayVar(&opts.claims, "claim", nil, "custom claim as key=value (repeatable)")

	return cmd
}
