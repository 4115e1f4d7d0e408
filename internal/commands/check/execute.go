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

package check

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/probekit/preflight/internal/cli/format"
	"github.com/probekit/preflight/internal/cli/prompt"
	"github.com/probekit/preflight/internal/commands/shared"
	"github.com/probekit/preflight/internal/config"
	"github.com/probekit/preflight/internal/jq"
	"github.com/probekit/preflight/internal/log"
	"github.com/probekit/preflight/internal/secrets"
	"github.com/probekit/preflight/internal/tracing"
	"github.com/probekit/preflight/internal/transport"
	"github.com/probekit/preflight/pkg/probe"
)

func runCheck(cmd *cobra.Command, opts *options) error {
	ctx := cmd.Context()

	if opts.url == "" && opts.base == "" {
		return shared.NewMissingInputError("a URL argument or --base is required", nil)
	}
	if opts.url != "" && (opts.base != "" || opts.path != "") {
		return shared.NewInvalidConfigError("a URL argument and --base/--path are mutually exclusive", nil)
	}
	if opts.timeout < 0 || opts.maxRetries < 0 || opts.retryDelay < 0 {
		return shared.NewInvalidConfigError("timeout, max-retries, and retry-delay must be non-negative", nil)
	}

	jqExec := jq.NewExecutor(0, 0)
	if err := jqExec.Validate(opts.jqFilter); err != nil {
		return shared.NewInvalidConfigError(err.Error(), err)
	}

	appCfg, err := config.Load(shared.GetConfigPath())
	if err != nil {
		return shared.NewInvalidConfigError("failed to load configuration", err)
	}
	logger := shared.NewLogger(appCfg.Log.Level, appCfg.Log.Format, appCfg.Log.AddSource)

	reqCfg := buildRequestConfig(appCfg, opts)

	auth, err := resolveAuth(ctx, opts)
	if err != nil {
		return err
	}
	reqCfg.Auth = auth
	if auth.Token != "" {
		logger.Debug("credential resolved",
			log.String("scheme", string(auth.Type)),
			log.String("token", log.SanitizeAPIKey(auth.Token)))
	}

	if opts.dryRun {
		return renderDryRun(cmd, opts, jqExec, reqCfg)
	}

	provider := shared.SetupTracing(ctx, appCfg, logger)
	defer provider.Shutdown(context.Background())

	var tp probe.Transport = transport.New(nil)
	if provider.Enabled() {
		tp = tracing.Transport(tp)
	}

	prober, err := probe.New(tp, probe.WithLogger(logger))
	if err != nil {
		return shared.NewInvalidConfigError("failed to initialize prober", err)
	}

	target := probe.BuildURL(reqCfg)
	binds, stopProgress := probeProgress(opts, reqCfg, target)

	runCtx, span := tracing.StartInvocation(ctx, "", target)
	res := prober.Run(runCtx, reqCfg, binds)
	stopProgress()
	tracing.FinishInvocation(span, res)

	if store := shared.OpenHistory(ctx, appCfg, opts.noHistory, logger); store != nil {
		shared.RecordHistory(ctx, store, "", res, logger)
		if err := store.Close(); err != nil {
			logger.Warn("failed to close history store", log.Error(err))
		}
	}

	if err := render(cmd, opts, jqExec, res); err != nil {
		return err
	}

	if res.Signal != probe.SignalSuccess {
		// The rendered output already explains the failure.
		return &shared.ExitError{Code: shared.ExitProbeFailed}
	}
	return nil
}

// buildRequestConfig layers the check flags over the configured defaults.
func buildRequestConfig(appCfg *config.Config, opts *options) *probe.RequestConfig {
	cfg := appCfg.BaseRequestConfig()

	cfg.URL = opts.url
	cfg.BaseURL = opts.base
	cfg.Path = opts.path

	if opts.accept != "" {
		cfg.Accept = opts.accept
	}
	if opts.userAgent != "" {
		cfg.UserAgent = opts.userAgent
	}
	if opts.flags.Changed("timeout") {
		cfg.Timeout = opts.timeout
	}
	if opts.flags.Changed("max-retries") {
		cfg.MaxRetries = opts.maxRetries
	}
	if opts.flags.Changed("retry-delay") {
		cfg.RetryDelay = opts.retryDelay
	}
	if opts.noFollowRedirects {
		cfg.FollowRedirects = false
	}

	cfg.Headers = strings.Join(opts.headers, "\n")
	cfg.Query = strings.Join(opts.query, "\n")

	cfg.LogRequests = shared.GetVerbose()
	cfg.LogResponses = shared.GetVerbose()
	cfg.VerboseErrors = shared.GetVerbose()

	return cfg
}

// probeProgress builds slot bindings that drive a spinner while the probe
// is in flight, so a terminal user sees retries as they happen. Quiet,
// JSON, jq, and piped output get no bindings.
func probeProgress(opts *options, cfg *probe.RequestConfig, target string) (*probe.Bindings, func()) {
	if shared.GetJSON() || shared.GetQuiet() || opts.jqFilter != "" || !format.IsTTY() {
		return nil, func() {}
	}

	spin := shared.NewSpinner()
	spin.Start("Probing " + target)

	// Slots fire once per attempt, ElapsedMS first, then StatusCode for a
	// received response, then Error for a failure. An error without a
	// response is transport-level and retries while budget remains.
	total := cfg.MaxRetries + 1
	finished := 0
	gotResponse := false
	binds := &probe.Bindings{Slots: &probe.OutputSlots{
		ElapsedMS: probe.SlotFunc(func(int64) {
			finished++
			gotResponse = false
		}),
		StatusCode: probe.SlotFunc(func(int) {
			gotResponse = true
		}),
		Error: probe.SlotFunc(func(string) {
			if !gotResponse && finished < total {
				spin.UpdateMessage(fmt.Sprintf("Probing %s (attempt %d of %d)", target, finished+1, total))
			}
		}),
	}}
	return binds, func() { spin.Stop() }
}

// resolveAuth assembles the auth scheme from flags, resolves secret://
// and ${VAR} references in credential values, and prompts for anything
// the scheme still needs.
func resolveAuth(ctx context.Context, opts *options) (probe.AuthScheme, error) {
	authType := opts.authType
	if authType == "" {
		switch {
		case opts.authHeader != "":
			authType = string(probe.AuthCustomHeader)
		case opts.username != "" || opts.flags.Changed("username"):
			authType = string(probe.AuthBasic)
		case opts.token != "" || opts.flags.Changed("token"):
			authType = string(probe.AuthBearer)
		default:
			authType = string(probe.AuthNone)
		}
	}

	switch probe.AuthType(authType) {
	case probe.AuthNone, probe.AuthBearer, probe.AuthAPIKey, probe.AuthBasic, probe.AuthCustomHeader:
	default:
		return probe.AuthScheme{}, shared.NewInvalidConfigError(
			fmt.Sprintf("unknown auth type %q (want none, bearer, api_key, basic, or custom_header)", authType), nil)
	}

	auth := probe.AuthScheme{
		Type:       probe.AuthType(authType),
		Token:      opts.token,
		Username:   opts.username,
		Password:   opts.password,
		HeaderName: opts.authHeader,
	}
	if auth.Type == probe.AuthNone {
		return probe.AuthScheme{Type: probe.AuthNone}, nil
	}
	if auth.Type == probe.AuthCustomHeader && auth.HeaderName == "" {
		return probe.AuthScheme{}, shared.NewInvalidConfigError(
			"custom_header auth requires --auth-header", nil)
	}

	resolve := secrets.DefaultChain().Get
	fields := []struct {
		flag  string
		value *string
	}{
		{"token", &auth.Token},
		{"username", &auth.Username},
		{"password", &auth.Password},
	}
	for _, field := range fields {
		if *field.value == "" {
			continue
		}
		resolved, err := config.ResolveValue(ctx, *field.value, resolve)
		if err != nil {
			return probe.AuthScheme{}, shared.NewCredentialError(
				fmt.Sprintf("failed to resolve --%s", field.flag), err)
		}
		*field.value = resolved
	}

	provided := map[string]bool{
		prompt.FieldToken:      opts.flags.Changed("token"),
		prompt.FieldUsername:   opts.flags.Changed("username"),
		prompt.FieldPassword:   opts.flags.Changed("password"),
		prompt.FieldHeaderName: opts.flags.Changed("auth-header"),
	}
	analyzer := prompt.NewCredentialAnalyzer(auth, provided)
	missing := analyzer.FindMissingCredentials()
	if len(missing) == 0 {
		return auth, nil
	}

	if shared.IsNonInteractive() {
		names := make([]string, 0, len(missing))
		for _, m := range missing {
			names = append(names, m.Name)
		}
		return probe.AuthScheme{}, shared.NewMissingInputNonInteractiveError(
			fmt.Sprintf("%s auth needs %s; pass the flag or run interactively",
				authType, strings.Join(names, ", ")), nil)
	}

	collector := prompt.NewCredentialCollector(prompt.NewSurveyPrompter(true))
	values, err := collector.CollectCredentials(ctx, missing)
	if err != nil {
		return probe.AuthScheme{}, shared.NewMissingInputError("credential collection failed", err)
	}

	return analyzer.ApplyCollected(values), nil
}
