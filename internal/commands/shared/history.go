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

package shared

import (
	"context"
	"log/slog"
	"time"

	"github.com/probekit/preflight/internal/config"
	"github.com/probekit/preflight/internal/history"
	"github.com/probekit/preflight/internal/log"
	"github.com/probekit/preflight/pkg/probe"
)

// OpenHistory opens the history store when recording is enabled. Returns
// nil when history is disabled or the store cannot be opened; storage
// problems are logged and never fail a probe. Aged-out records are pruned
// on open.
func OpenHistory(ctx context.Context, appCfg *config.Config, disabled bool, logger *slog.Logger) *history.Store {
	if disabled || !appCfg.History.Enabled {
		return nil
	}

	path, err := appCfg.HistoryPath()
	if err != nil {
		logger.Warn("history disabled: no data directory", log.Error(err))
		return nil
	}

	store, err := history.Open(path)
	if err != nil {
		logger.Warn("history disabled: failed to open store",
			log.String("path", path), log.Error(err))
		return nil
	}

	if appCfg.History.MaxAge > 0 {
		if _, err := store.Prune(ctx, time.Now().Add(-appCfg.History.MaxAge)); err != nil {
			logger.Warn("failed to prune history", log.Error(err))
		}
	}

	return store
}

// RecordHistory appends a finished invocation to the store, best-effort.
// A nil store is a no-op.
func RecordHistory(ctx context.Context, store *history.Store, name string, res *probe.Result, logger *slog.Logger) {
	if store == nil {
		return
	}
	if err := store.Append(ctx, history.NewRecord(name, res)); err != nil {
		logger.Warn("failed to record history", log.Error(err))
	}
}
