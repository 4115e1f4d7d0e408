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

// Package history persists finished probe invocations to a local SQLite
// database. Recording is advisory: callers log and swallow storage
// failures so that history never alters a probe outcome.
package history

import (
	"time"

	"github.com/probekit/preflight/pkg/probe"
)

// Record is one finished invocation as stored in history. The JSON tags
// shape the output of `history list --jq` and `history show`.
type Record struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Name         string    `json:"name,omitempty"`
	URL          string    `json:"url"`
	Signal       string    `json:"signal"`
	StatusCode   int       `json:"status_code,omitempty"`
	StatusText   string    `json:"status_text,omitempty"`
	ElapsedMS    int64     `json:"elapsed_ms"`
	Attempts     int       `json:"attempts"`
	Error        string    `json:"error,omitempty"`
	Allow        string    `json:"allow,omitempty"`
	AllowHeaders string    `json:"allow_headers,omitempty"`
	MaxAge       string    `json:"max_age,omitempty"`
}

// NewRecord builds a Record from a finished invocation. Name identifies
// the probe when the invocation came from a probe file; it stays empty for
// ad-hoc URL probes. Response-derived fields (status, Allow, CORS headers)
// stay zero when no response was received.
func NewRecord(name string, res *probe.Result) *Record {
	rec := &Record{
		ID:         res.ID,
		CreatedAt:  time.Now(),
		Name:       name,
		URL:        res.URL,
		Signal:     string(res.Signal),
		StatusCode: res.Outcome.StatusCode,
		StatusText: res.Outcome.StatusText,
		ElapsedMS:  res.ElapsedMS,
		Attempts:   res.Attempts,
		Error:      res.Outcome.Message,
	}
	if v, ok := res.Outcome.Header("Allow"); ok {
		rec.Allow = v
	}
	if v, ok := res.Outcome.Header("Access-Control-Allow-Headers"); ok {
		rec.AllowHeaders = v
	}
	if v, ok := res.Outcome.Header("Access-Control-Max-Age"); ok {
		rec.MaxAge = v
	}
	return rec
}
