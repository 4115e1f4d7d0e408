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

	"github.com/probekit/preflight/internal/config"
	"github.com/probekit/preflight/internal/log"
	"github.com/probekit/preflight/internal/tracing"
)

// SetupTracing initializes the tracer provider from the application
// config. A setup failure is logged and leaves tracing disabled: a probe
// never fails because span export is misconfigured. Callers should defer
// the returned provider's Shutdown; the nil provider tolerates that.
func SetupTracing(ctx context.Context, appCfg *config.Config, logger *slog.Logger) *tracing.Provider {
	version, _, _ := GetVersion()

	provider, err := tracing.Setup(ctx, tracing.Config{
		Enabled:        appCfg.Tracing.Enabled,
		ServiceName:    appCfg.Tracing.ServiceName,
		ServiceVersion: version,
		Exporter:       appCfg.Tracing.Exporter,
		Endpoint:       appCfg.Tracing.Endpoint,
		Insecure:       appCfg.Tracing.Insecure,
		CACert:         appCfg.Tracing.CACert,
		Headers:        appCfg.Tracing.Headers,
	})
	if err != nil {
		logger.Warn("tracing disabled: setup failed", log.Error(err))
		return nil
	}
	return provider
}
