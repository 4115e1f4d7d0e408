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

package expect

import (
	"github.com/probekit/preflight/pkg/probe"
)

// Env builds the expectation environment from a finished invocation.
// Response-derived values (status, allow, headers) stay zero for timeout
// and network-error outcomes, where no response exists.
func Env(res *probe.Result) map[string]any {
	headers := make(map[string]string, len(res.Outcome.Headers))
	for _, h := range res.Outcome.Headers {
		headers[h.Name] = h.Value
	}

	env := map[string]any{
		"signal":        string(res.Signal),
		"status":        res.Outcome.StatusCode,
		"status_text":   res.Outcome.StatusText,
		"elapsed_ms":    res.ElapsedMS,
		"attempts":      res.Attempts,
		"allow":         "",
		"allow_headers": "",
		"max_age":       "",
		"headers":       headers,
		"header": func(name string) string {
			v, _ := res.Outcome.Header(name)
			return v
		},
	}

	if v, ok := res.Outcome.Header("Allow"); ok {
		env["allow"] = v
	}
	if v, ok := res.Outcome.Header("Access-Control-Allow-Headers"); ok {
		env["allow_headers"] = v
	}
	if v, ok := res.Outcome.Header("Access-Control-Max-Age"); ok {
		env["max_age"] = v
	}

	return env
}

// envSchema declares the environment's names and types for compile-time
// checking. It must stay in shape with Env.
func envSchema() map[string]any {
	return map[string]any{
		"signal":        "",
		"status":        0,
		"status_text":   "",
		"elapsed_ms":    int64(0),
		"attempts":      0,
		"allow":         "",
		"allow_headers": "",
		"max_age":       "",
		"headers":       map[string]string{},
		"header":        func(name string) string { return "" },
	}
}
