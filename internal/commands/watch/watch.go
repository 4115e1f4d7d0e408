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

// Package watch implements the continuous probing command: the probe
// file re-runs on every change and, optionally, on a fixed interval,
// with results exposed as logs and Prometheus metrics.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/probekit/preflight/internal/commands/completion"
	"github.com/probekit/preflight/internal/commands/run"
	"github.com/probekit/preflight/internal/commands/shared"
	"github.com/probekit/preflight/internal/config"
	"github.com/probekit/preflight/internal/credentials"
	"github.com/probekit/preflight/internal/log"
	"github.com/probekit/preflight/internal/secrets"
	"github.com/probekit/preflight/internal/tracing"
	"github.com/probekit/preflight/internal/transport"
	probewatch "github.com/probekit/preflight/internal/watch"
	"github.com/probekit/preflight/pkg/probe"
)

// secretTTL bounds how long watch cycles reuse a resolved secret before
// going back to the backend. File changes clear the cache immediately.
const secretTTL = 5 * time.Minute

type options struct {
	file          string
	interval      time.Duration
	metricsListen string
}

// NewCommand creates the watch command.
func NewCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "watch [file]",
		Short: "Re-run probes when the probe file changes",
		Long: `Watch runs the probe file once, then re-runs it whenever the file
changes. Editor save bursts are debounced and change-triggered re-runs
are rate-limited. With --interval the probes also re-run periodically
between changes, which turns watch into a lightweight uptime monitor.

Results are reported as structured logs, one summary line per cycle and
one warning per failing probe. With --metrics-listen, probe results are
also exposed as Prometheus metrics on the given address under /metrics.

Watch runs until interrupted; Ctrl-C exits with code 0.

Exit codes:
  0  interrupted normally
  2  invalid probe file or flags
  3  no probe file found
  4  credential resolution failed at startup

Examples:
  # Re-run on change
  preflight watch smoke.yaml

  # Also re-run every 30 seconds and expose metrics
  preflight watch smoke.yaml --interval 30s --metrics-listen :9105`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completion.CompleteProbeFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.file = args[0]
			}
			return runWatch(cmd, &opts)
		},
	}

	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "also re-run probes on this interval (0 = change-triggered only)")
	cmd.Flags().StringVar(&opts.metricsListen, "metrics-listen", "", "serve Prometheus metrics on this address (empty = disabled)")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *options) error {
	ctx := cmd.Context()

	if opts.interval < 0 {
		return shared.NewInvalidConfigError("--interval must be non-negative", nil)
	}

	path, err := shared.ResolveProbePath(opts.file)
	if err != nil {
		return shared.NewMissingInputError(err.Error(), nil)
	}

	// Validate the file before the first cycle so an unusable file fails
	// the command instead of looping on load errors.
	if _, err := run.LoadPlan(path, ""); err != nil {
		return run.Classify(err)
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

	store := shared.OpenHistory(ctx, appCfg, false, logger)
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close history store", log.Error(err))
			}
		}()
	}

	cache := secrets.NewCache(secrets.DefaultChain(), secretTTL)
	exec := &run.Executor{
		Prober:  prober,
		Base:    base,
		Resolve: cache.Get,
		Minter:  credentials.NewMinter(),
		History: store,
		Logger:  logger,
	}

	if opts.metricsListen != "" {
		stop := serveMetrics(opts.metricsListen, logger)
		defer stop()
	}

	onRun := func(runCtx context.Context, reason probewatch.Reason) error {
		if reason == probewatch.ReasonChange {
			// An edit may change which secrets the file references.
			cache.Clear()
		}
		plan, err := run.LoadPlan(path, "")
		if err != nil {
			return err
		}
		report, err := exec.Execute(runCtx, plan)
		if err != nil {
			return err
		}
		observeReport(report)
		logReport(logger, reason, report)
		return nil
	}

	watcher, err := probewatch.New(probewatch.Config{
		Path:     path,
		OnRun:    onRun,
		Interval: opts.interval,
		Logger:   logger,
	})
	if err != nil {
		return shared.NewInvalidConfigError("failed to watch probe file", err)
	}
	defer watcher.Close()

	return watcher.Run(ctx)
}

// logReport emits one summary line per cycle plus a warning per failing
// probe. Watch output is log-driven so it composes with LOG_FORMAT=json
// and long-running service supervision.
func logReport(logger *slog.Logger, reason probewatch.Reason, report *run.Report) {
	passed, failed := report.Counts()
	logger.Info("probe run finished",
		slog.String("reason", string(reason)),
		slog.Int("passed", passed),
		slog.Int("failed", failed),
	)

	for _, pr := range report.Results {
		if pr.Passed() {
			continue
		}
		attrs := []any{
			slog.String(log.ProbeKey, pr.Name),
			slog.String(log.SignalKey, string(pr.Result.Signal)),
		}
		if pr.Result.Outcome.StatusCode != 0 {
			attrs = append(attrs, slog.Int("status", pr.Result.Outcome.StatusCode))
		}
		for _, check := range pr.FailedChecks() {
			attrs = append(attrs, slog.String("expect_failed", check))
		}
		logger.Warn("probe failed", attrs...)
	}
}

// serveMetrics exposes the Prometheus registry on addr until the
// returned stop function is called. Serving failures are logged and do
// not stop the watch: metrics are an observer, not a dependency.
func serveMetrics(addr string, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", log.Error(err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
