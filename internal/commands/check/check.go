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

// Package check implements the one-shot probe command: a single OPTIONS
// request assembled from flags, with the outcome rendered as a styled
// card or JSON.
package check

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/probekit/preflight/internal/commands/completion"
)

type options struct {
	url  string
	base string
	path string

	authType   string
	token      string
	username   string
	password   string
	authHeader string

	headers []string
	query   []string

	accept            string
	userAgent         string
	timeout           time.Duration
	maxRetries        int
	retryDelay        time.Duration
	noFollowRedirects bool

	jqFilter  string
	noHistory bool
	dryRun    bool

	flags *pflag.FlagSet
}

// NewCommand creates the check command
func NewCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "check [url]",
		Short: "Send a single OPTIONS probe to a URL",
		Long: `Check sends one OPTIONS request and reports the outcome.

The target is either a full URL argument or --base plus an optional
--path, joined with exactly one slash between them.

Authentication:
  --auth selects the scheme (none, bearer, api_key, basic,
  custom_header); when omitted it is inferred from the credential
  flags. Credential values may reference stored secrets (secret://key)
  or environment variables (${VAR}). Credentials the scheme needs but
  no flag supplies are prompted for on a TTY.

Exit codes:
  0  probe succeeded (2xx)
  1  probe failed (4xx/5xx, network error, timeout)
  2  invalid flags or configuration
  3  missing input
  4  credential resolution failed

Examples:
  preflight check https://api.example.com/v1/users
  preflight check --base https://api.example.com --path /v1/users
  preflight check https://api.example.com --auth bearer --token secret://api-token
  preflight check https://api.example.com --json --jq '.status_code'
  preflight check https://api.example.com -H 'X-Request-Id: 42' --dry-run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.url = args[0]
			}
			opts.flags = cmd.Flags()
			return runCheck(cmd, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.base, "base", "", "Base URL joined with --path")
	cmd.Flags().StringVar(&opts.path, "path", "", "Path appended to --base")
	cmd.Flags().StringVar(&opts.authType, "auth", "", "Auth scheme (none, bearer, api_key, basic, custom_header)")
	cmd.Flags().StringVar(&opts.token, "token", "", "Bearer token, API key, or custom header value")
	cmd.Flags().StringVar(&opts.username, "username", "", "Username for basic auth")
	cmd.Flags().StringVar(&opts.password, "password", "", "Password for basic auth")
	cmd.Flags().StringVar(&opts.authHeader, "auth-header", "", "Header name carrying the credential (custom_header auth)")
	cmd.Flags().StringArrayVarP(&opts.headers, "header", "H", nil, "Custom request header as 'Name: value' (repeatable)")
	cmd.Flags().StringArrayVar(&opts.query, "query", nil, "Query parameter as key=value (repeatable)")
	cmd.Flags().StringVar(&opts.accept, "accept", "", "Accept header (default application/json)")
	cmd.Flags().StringVar(&opts.userAgent, "user-agent", "", "User-Agent header")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Per-attempt timeout (default 30s)")
	cmd.Flags().IntVar(&opts.maxRetries, "max-retries", 0, "Retries after timeouts and network errors")
	cmd.Flags().DurationVar(&opts.retryDelay, "retry-delay", 0, "Pause before each retry (default 1s)")
	cmd.Flags().BoolVar(&opts.noFollowRedirects, "no-follow-redirects", false, "Report 3xx responses instead of following them")
	cmd.Flags().StringVar(&opts.jqFilter, "jq", "", "Filter the JSON result with a jq expression")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "Skip recording this probe in history")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Compose and print the request without sending it")

	_ = cmd.RegisterFlagCompletionFunc("auth", completion.CompleteAuthTypes)

	return cmd
}
