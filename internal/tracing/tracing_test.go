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

package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_Disabled(t *testing.T) {
	provider, err := Setup(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, provider)
	assert.False(t, provider.Enabled())
}

func TestSetup_ConsoleExporter(t *testing.T) {
	provider, err := Setup(context.Background(), Config{
		Enabled:        true,
		ServiceVersion: "test",
	})
	require.NoError(t, err)
	require.NotNil(t, provider)
	assert.True(t, provider.Enabled())

	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestSetup_OTLPHTTPExporter(t *testing.T) {
	// Construction is lazy; nothing connects until spans flush.
	provider, err := Setup(context.Background(), Config{
		Enabled:  true,
		Exporter: "otlp-http",
		Endpoint: "localhost:4318",
		Insecure: true,
	})
	require.NoError(t, err)
	require.NotNil(t, provider)

	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestSetup_OTLPRequiresEndpoint(t *testing.T) {
	for _, exporter := range []string{"otlp-http", "otlp-grpc"} {
		_, err := Setup(context.Background(), Config{
			Enabled:  true,
			Exporter: exporter,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires an endpoint")
	}
}

func TestSetup_UnknownExporter(t *testing.T) {
	_, err := Setup(context.Background(), Config{
		Enabled:  true,
		Exporter: "jaeger",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown trace exporter")
}

func TestProvider_NilIsInert(t *testing.T) {
	var provider *Provider

	assert.False(t, provider.Enabled())
	assert.NoError(t, provider.Shutdown(context.Background()))
	assert.NoError(t, provider.ForceFlush(context.Background()))
}
