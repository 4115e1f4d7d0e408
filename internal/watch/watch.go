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

// Package watch re-runs probes when their probe file changes. Change
// bursts are debounced, editor temp files are filtered out, and re-run
// frequency is rate-limited.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/probekit/preflight/internal/log"
)

const (
	// DefaultDebounce coalesces the event bursts editors produce per save.
	DefaultDebounce = 200 * time.Millisecond

	// DefaultMaxRunsPerMinute bounds change-triggered re-runs.
	DefaultMaxRunsPerMinute = 30
)

// Reason explains why a run fired.
type Reason string

const (
	// ReasonInitial is the run executed once at startup.
	ReasonInitial Reason = "initial"

	// ReasonChange is a run triggered by a probe-file change.
	ReasonChange Reason = "change"

	// ReasonInterval is a periodic run between changes.
	ReasonInterval Reason = "interval"
)

// Config configures a Watcher.
type Config struct {
	// Path is the probe file to watch.
	Path string

	// OnRun executes the probes. It is invoked serially: once at startup
	// and again after every accepted trigger. Errors are logged and do
	// not stop the watch.
	OnRun func(ctx context.Context, reason Reason) error

	// Debounce is the window for coalescing change bursts.
	// Defaults to DefaultDebounce.
	Debounce time.Duration

	// Interval adds periodic re-runs between changes. Zero disables them.
	Interval time.Duration

	// MaxRunsPerMinute bounds change-triggered re-runs.
	// Defaults to DefaultMaxRunsPerMinute.
	MaxRunsPerMinute int

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Watcher re-runs a probe file on filesystem changes.
type Watcher struct {
	path      string
	onRun     func(ctx context.Context, reason Reason) error
	interval  time.Duration
	fsw       *fsnotify.Watcher
	matcher   *PatternMatcher
	debouncer *Debouncer
	limiter   *rate.Limiter
	triggerCh chan struct{}
	logger    *slog.Logger
}

// New creates a watcher for the probe file in cfg. The file must exist.
func New(cfg Config) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("probe file path is required")
	}
	if cfg.OnRun == nil {
		return nil, fmt.Errorf("run callback is required")
	}

	absPath, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve watch path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("cannot watch %s: %w", cfg.Path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("start fsnotify watcher: %w", err)
	}

	// Watch the directory rather than the file: editors replace files by
	// rename, which silently drops a watch held on the old inode.
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(absPath), err)
	}

	matcher, err := NewPatternMatcher([]string{filepath.Base(absPath)}, DefaultExcludePatterns())
	if err != nil {
		fsw.Close()
		return nil, err
	}

	debounce := cfg.Debounce
	if debounce == 0 {
		debounce = DefaultDebounce
	}
	maxRuns := cfg.MaxRunsPerMinute
	if maxRuns == 0 {
		maxRuns = DefaultMaxRunsPerMinute
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		path:     absPath,
		onRun:    cfg.OnRun,
		interval: cfg.Interval,
		fsw:      fsw,
		matcher:  matcher,
		// Convert runs per minute to tokens per second
		limiter:   rate.NewLimiter(rate.Limit(float64(maxRuns)/60.0), 1),
		triggerCh: make(chan struct{}, 1),
		logger:    log.WithComponent(logger, "watch").With(slog.String("path", absPath)),
	}
	w.debouncer = NewDebouncer(debounce, w.queueRun)

	return w, nil
}

// Run executes the initial run, then blocks, re-running the probes on
// file changes (and on the interval, when set) until ctx is canceled.
// Cancellation is the normal way to stop watching and returns nil.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watching probe file", slog.Duration("interval", w.interval))

	w.runOnce(ctx, ReasonInitial)

	go w.eventLoop(ctx)

	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch stopped")
			return nil

		case <-w.triggerCh:
			if !w.limiter.Allow() {
				watchRateLimited.Inc()
				w.logger.Warn("re-run rate limit exceeded, dropping change")
				continue
			}
			w.runOnce(ctx, ReasonChange)

		case <-tick:
			w.runOnce(ctx, ReasonInterval)
		}
	}
}

// Close releases the filesystem watcher and any pending debounce timer.
func (w *Watcher) Close() error {
	w.debouncer.Stop()
	return w.fsw.Close()
}

func (w *Watcher) runOnce(ctx context.Context, reason Reason) {
	watchRuns.WithLabelValues(string(reason)).Inc()
	if reason != ReasonInitial {
		w.logger.Info("re-running probes", slog.String("reason", string(reason)))
	}
	if err := w.onRun(ctx, reason); err != nil {
		w.logger.Error("probe run failed", slog.String("error", err.Error()))
	}
}

// eventLoop drains filesystem events until the context is canceled or the
// watcher is closed.
func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", slog.String("error", err.Error()))
		}
	}
}

// handleEvent routes directory events: writes and creates of the watched
// file trigger a debounced re-run, removal is reported and waited out.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !w.matcher.Match(event.Name) {
		watchExcluded.Inc()
		return
	}

	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		w.logger.Debug("probe file changed", slog.String("op", event.Op.String()))
		w.debouncer.Trigger()

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// The file may reappear on the next editor save cycle; the
		// directory watch picks up the create.
		w.logger.Warn("probe file removed")
	}
}

// queueRun requests a re-run without blocking the debounce timer. A full
// queue means a re-run is already pending, which covers this change.
func (w *Watcher) queueRun() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}
