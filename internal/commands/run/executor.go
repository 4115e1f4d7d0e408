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

package run

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/time/rate"

	"github.com/probekit/preflight/internal/commands/shared"
	"github.com/probekit/preflight/internal/config"
	"github.com/probekit/preflight/internal/credentials"
	"github.com/probekit/preflight/internal/expect"
	"github.com/probekit/preflight/internal/history"
	"github.com/probekit/preflight/internal/log"
	"github.com/probekit/preflight/internal/tracing"
	preflighterrors "github.com/probekit/preflight/pkg/errors"
	"github.com/probekit/preflight/pkg/probe"
)

// Plan is a validated probe file ready to execute: probes filtered,
// expectations compiled, and no request sent yet.
type Plan struct {
	// Path is the probe file the plan was loaded from.
	Path string

	// Probes are the probes that will run, in declaration order.
	Probes []*config.Probe

	view     *config.ProbeFile
	compiled [][]*expect.Expectation
}

// LoadPlan loads the probe file at path and prepares the probes whose
// names match the only glob; an empty glob matches every probe. All
// pre-network validation happens here: parse errors, unknown fields,
// and bad expectation expressions are reported before anything runs.
func LoadPlan(path, only string) (*Plan, error) {
	f, err := config.LoadProbeFile(path)
	if err != nil {
		return nil, err
	}

	probes, err := filterProbes(f.Probes, only)
	if err != nil {
		return nil, err
	}

	compiled := make([][]*expect.Expectation, len(probes))
	for i, p := range probes {
		c, err := expect.CompileAll(p.Expect)
		if err != nil {
			return nil, fmt.Errorf("probe %q: %w", p.Name, err)
		}
		compiled[i] = c
	}

	return &Plan{
		Path:   path,
		Probes: probes,
		// The filtered view shares the file's defaults, so credential
		// resolution and token minting touch only the probes that run.
		view:     &config.ProbeFile{Defaults: f.Defaults, Probes: probes},
		compiled: compiled,
	}, nil
}

// filterProbes applies the only glob to probe names.
func filterProbes(probes []*config.Probe, only string) ([]*config.Probe, error) {
	if only == "" {
		return probes, nil
	}
	if !doublestar.ValidatePattern(only) {
		return nil, &preflighterrors.ValidationError{
			Field:       "--only",
			Message:     fmt.Sprintf("invalid glob pattern %q", only),
			SuggestText: "use glob syntax such as 'api-*' or '*-smoke'",
		}
	}

	var matched []*config.Probe
	for _, p := range probes {
		if ok, _ := doublestar.Match(only, p.Name); ok {
			matched = append(matched, p)
		}
	}
	if len(matched) == 0 {
		return nil, &preflighterrors.ValidationError{
			Field:       "--only",
			Message:     fmt.Sprintf("no probes match %q", only),
			SuggestText: "broaden the pattern or drop --only",
		}
	}
	return matched, nil
}

// ProbeResult pairs one probe's result with its expectation checks.
type ProbeResult struct {
	Name   string
	Result *probe.Result
	Checks []expect.Result
}

// Passed reports whether the probe succeeded and every check held.
func (pr *ProbeResult) Passed() bool {
	return pr.Result.Signal == probe.SignalSuccess && expect.AllPassed(pr.Checks)
}

// FailedChecks returns the source text of every failed expectation,
// annotated with the evaluation error when there was one.
func (pr *ProbeResult) FailedChecks() []string {
	var failed []string
	for _, check := range pr.Checks {
		if check.Passed {
			continue
		}
		if check.Error != "" {
			failed = append(failed, fmt.Sprintf("%s (%s)", check.Expression, check.Error))
		} else {
			failed = append(failed, check.Expression)
		}
	}
	return failed
}

// Report is the outcome of one probe file execution.
type Report struct {
	// File is the probe file that was executed.
	File string

	// Results holds one entry per executed probe, in execution order.
	Results []*ProbeResult
}

// Counts returns how many probes passed and how many failed.
func (r *Report) Counts() (passed, failed int) {
	for _, pr := range r.Results {
		if pr.Passed() {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}

// Passed reports whether every probe passed.
func (r *Report) Passed() bool {
	_, failed := r.Counts()
	return failed == 0
}

// Executor runs probe plans through one prober. Construct it once and
// reuse it across runs: watch cycles share the executor, so minted
// tokens and cached secrets carry over between cycles.
type Executor struct {
	// Prober executes the probes. Required.
	Prober *probe.Prober

	// Base supplies the configured request defaults that probe files
	// layer their own settings over. Nil starts from the built-ins.
	Base *probe.RequestConfig

	// Resolve resolves secret:// credential references. With a nil
	// resolver any secret reference fails the run rather than going out
	// on the wire as a literal.
	Resolve config.SecretResolver

	// Minter mints OAuth2 bearer tokens for probes with a token_url.
	// Nil skips minting.
	Minter *credentials.Minter

	// Limiter paces probe starts. Nil runs unpaced.
	Limiter *rate.Limiter

	// History records finished probes. Nil disables recording.
	History *history.Store

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// OnStart and OnResult observe the probe lifecycle, for progress
	// display. Either may be nil. Probes run serially, so callbacks
	// never overlap.
	OnStart  func(name string, index, total int)
	OnResult func(pr *ProbeResult, index, total int)
}

// Execute resolves the plan's credentials, mints any OAuth2 tokens, and
// runs every probe. Resolution and minting failures abort the run; probe
// and expectation failures do not, and land in the report. A canceled
// context returns the partial report with the context error.
func (e *Executor) Execute(ctx context.Context, plan *Plan) (*Report, error) {
	if err := plan.view.ResolveCredentials(ctx, e.Resolve); err != nil {
		return nil, err
	}
	if e.Minter != nil {
		var timeout time.Duration
		if e.Base != nil {
			timeout = e.Base.Timeout
		}
		if err := e.Minter.Apply(ctx, plan.view, timeout); err != nil {
			return nil, err
		}
	}

	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	report := &Report{File: plan.Path}
	total := len(plan.Probes)
	for i, p := range plan.Probes {
		if e.Limiter != nil {
			if err := e.Limiter.Wait(ctx); err != nil {
				return report, err
			}
		}
		if e.OnStart != nil {
			e.OnStart(p.Name, i+1, total)
		}

		cfg := plan.view.RequestConfig(e.Base, p)
		runCtx, span := tracing.StartInvocation(ctx, p.Name, probe.BuildURL(cfg))
		res := e.Prober.Run(runCtx, cfg, nil)
		tracing.FinishInvocation(span, res)

		pr := &ProbeResult{
			Name:   p.Name,
			Result: res,
			Checks: expect.Evaluate(plan.compiled[i], res),
		}
		report.Results = append(report.Results, pr)

		plog := log.WithProbeContext(logger, res.ID, p.Name)
		plog.Debug("probe finished",
			log.String(log.SignalKey, string(res.Signal)),
			log.Int("attempts", res.Attempts),
			log.Duration("duration", res.ElapsedMS),
			log.Bool("passed", pr.Passed()))
		if res.Outcome.Body != "" {
			log.Trace(plog, "response body", log.String("body", res.Outcome.Body))
		}

		shared.RecordHistory(ctx, e.History, p.Name, res, logger)

		if e.OnResult != nil {
			e.OnResult(pr, i+1, total)
		}
	}

	return report, nil
}
