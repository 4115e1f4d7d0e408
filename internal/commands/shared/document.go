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
	"github.com/probekit/preflight/pkg/probe"
)

// ResultDocument is the JSON shape of a finished probe. The same document
// feeds --json output, --jq filters, and MCP tool results.
type ResultDocument struct {
	ID           string            `json:"id"`
	URL          string            `json:"url"`
	Signal       string            `json:"signal"`
	Success      bool              `json:"success"`
	StatusCode   int               `json:"status_code,omitempty"`
	StatusText   string            `json:"status_text,omitempty"`
	Attempts     int               `json:"attempts"`
	ElapsedMS    int64             `json:"elapsed_ms"`
	Error        string            `json:"error,omitempty"`
	Allow        string            `json:"allow,omitempty"`
	AllowHeaders string            `json:"allow_headers,omitempty"`
	MaxAge       string            `json:"max_age,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	Body         string            `json:"body,omitempty"`
}

// NewResultDocument converts a probe result to its output document.
func NewResultDocument(res *probe.Result) *ResultDocument {
	out := res.Outcome

	doc := &ResultDocument{
		ID:         res.ID,
		URL:        res.URL,
		Signal:     string(res.Signal),
		Success:    res.Signal == probe.SignalSuccess,
		StatusCode: out.StatusCode,
		StatusText: out.StatusText,
		Attempts:   res.Attempts,
		ElapsedMS:  res.ElapsedMS,
		Error:      out.Message,
	}

	if v, ok := out.Header("Allow"); ok {
		doc.Allow = v
	}
	if v, ok := out.Header("Access-Control-Allow-Headers"); ok {
		doc.AllowHeaders = v
	}
	if v, ok := out.Header("Access-Control-Max-Age"); ok {
		doc.MaxAge = v
	}

	if len(out.Headers) > 0 {
		doc.Headers = make(map[string]string, len(out.Headers))
		for _, h := range out.Headers {
			doc.Headers[h.Name] = h.Value
		}
	}
	doc.Body = out.Body

	return doc
}
