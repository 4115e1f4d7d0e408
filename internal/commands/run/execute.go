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
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/probekit/preflight/internal/cli/format"
	"github.com/probekit/preflight/internal/cli/timeline"
	"github.com/probekit/preflight/internal/commands/shared"
	"github.com/probekit/preflight/internal/config"
	"github.com/probekit/preflight/internal/credentials"
	"github.com/probekit/preflight/internal/log"
	"github.com/probekit/preflight/internal/secrets"
	"github.com/probekit/preflight/internal/tracing"
	"github.com/probekit/preflight/internal/transport"
	preflighterrors "github.com/probekit/preflight/pkg/errors"
	"github.com/probekit/preflight/pkg/probe"
)

func runProbes(cmd *cobra.Command, opts *options) error {
	ctx := cmd.Context()

	if opts.rate < 0 {
		return shared.NewInvalidConfigError("--rate must be non-negative", nil)
	}

	path, err := shared.ResolveProbePath(opts.file)
	if err != nil {
		return shared.NewMissingInputError(err.Error(), nil)
	}

	plan, err := LoadPlan(path, opts.only)
	if err != nil {
		return Classify(err)
	}

	appCfg, err := config.Load(shared.GetConfigPath())
	if err != nil {
		return shared.NewInvalidConfigError("failed to load configuration", err)
	}
	logger := shared.NewLogger(appCfg.Log.Level, appCfg.Log.Format, appCfg.Log.AddSource)

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

	base := appCfg.BaseRequestConfig()
	base.LogRequests = shared.GetVerbose()
	base.LogResponses = shared.GetVerbose()
	base.VerboseErrors = shared.GetVerbose()

	store := shared.OpenHistory(ctx, appCfg, opts.noHistory, logger)
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close history store", log.Error(err))
			}
		}()
	}

	var limiter *rate.Limiter
	if opts.rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.rate), 1)
	}

	exec := &Executor{
		Prober:  prober,
		Base:    base,
		Resolve: secrets.NewCache(secrets.DefaultChain(), 0).Get,
		Minter:  credentials.NewMinter(),
		Limiter: limiter,
		History: store,
		Logger:  logger,
	}

	var (
		progress *shared.ProgressDisplay
		spans    []timeline.ProbeSpan
		started  time.Time
	)
	textMode := !shared.GetJSON()
	if textMode && !shared.GetQuiet() {
		progress = shared.NewProgressDisplay(false, shared.GetVerbose())
		progress.Start(filepath.Base(path), len(plan.Probes))
	}
	exec.OnStart = func(name string, index, total int) {
		started = time.Now()
		if progress != nil {
			progress.ProbeStarted(name, index, total)
		}
	}
	exec.OnResult = func(pr *ProbeResult, index, total int) {
		end := time.Now()
		spans = append(spans, timeline.ProbeSpan{
			Name:       pr.Name,
			StartTime:  started,
			EndTime:    end,
			Duration:   end.Sub(started),
			Signal:     pr.Result.Signal,
			StatusCode: pr.Result.Outcome.StatusCode,
		})
		if progress != nil {
			progress.ProbeCompleted(pr.Name, pr.Result.Signal,
				pr.Result.Outcome.StatusCode, pr.Result.ElapsedMS, pr.FailedChecks())
		}
	}

	report, err := exec.Execute(ctx, plan)
	if err != nil {
		return Classify(err)
	}

	if progress != nil {
		progress.Finish()
		renderTimeline(cmd, logger, filepath.Base(path), spans)
	}
	if !textMode {
		if err := emitReport(cmd, report); err != nil {
			return err
		}
	}

	if !report.Passed() {
		// The per-probe lines already explain the failures.
		return &shared.ExitError{Code: shared.ExitProbeFailed}
	}
	return nil
}

// Classify maps plan and execution failures to exit codes: credential
// resolution and token minting get the credential code, anything wrong
// with the probe file or flags is invalid configuration. Context
// cancellation passes through untouched. The watch command reuses this
// mapping for its startup validation.
func Classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var credErr *preflighterrors.CredentialError
	if errors.As(err, &credErr) {
		return shared.NewCredentialError("credential resolution failed", err)
	}
	return shared.NewInvalidConfigError("invalid probe file", err)
}

// renderTimeline draws the run's ASCII timeline in verbose terminal
// sessions. Narrow terminals skip it.
func renderTimeline(cmd *cobra.Command, logger *slog.Logger, label string, spans []timeline.ProbeSpan) {
	if !shared.GetVerbose() || !format.IsTTY() || len(spans) == 0 {
		return
	}
	renderer, err := timeline.NewRenderer()
	if err != nil {
		logger.Debug("timeline skipped", log.Error(err))
		return
	}
	out, err := renderer.Render(label, spans)
	if err != nil {
		logger.Debug("timeline skipped", log.Error(err))
		return
	}
	cmd.Println()
	cmd.Print(out)
}
