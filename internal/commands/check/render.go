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

package check

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/probekit/preflight/internal/cli/format"
	"github.com/probekit/preflight/internal/commands/shared"
	"github.com/probekit/preflight/internal/jq"
	"github.com/probekit/preflight/pkg/probe"
)

func render(cmd *cobra.Command, opts *options, jqExec *jq.Executor, res *probe.Result) error {
	if shared.GetJSON() || opts.jqFilter != "" {
		doc := shared.NewResultDocument(res)
		rendered, err := jqExec.Render(cmd.Context(), opts.jqFilter, doc)
		if err != nil {
			return shared.NewInvalidConfigError("jq filter failed", err)
		}
		cmd.Println(rendered)
		return nil
	}

	renderCard(cmd, res)
	return nil
}

// permissionHeaders are the OPTIONS response headers worth surfacing on
// the card: what the endpoint allows and for how long to cache it.
var permissionHeaders = []string{
	"Allow",
	"Access-Control-Allow-Origin",
	"Access-Control-Allow-Methods",
	"Access-Control-Allow-Headers",
	"Access-Control-Max-Age",
}

func renderCard(cmd *cobra.Command, res *probe.Result) {
	out := res.Outcome

	cmd.Printf("%s  %s\n", shared.RenderSignal(res.Signal), res.URL)
	if shared.GetQuiet() {
		return
	}

	if out.HasResponse() {
		cmd.Printf("  %s %d %s\n", shared.RenderLabel("status:"), out.StatusCode, out.StatusText)
		for _, name := range permissionHeaders {
			if v, ok := out.Header(name); ok {
				cmd.Printf("  %s %s\n", shared.RenderLabel(strings.ToLower(name)+":"), v)
			}
		}
	}
	if out.Message != "" {
		cmd.Printf("  %s %s\n", shared.RenderLabel("error:"), out.Message)
	}
	cmd.Printf("  %s %s\n", shared.RenderLabel("elapsed:"), elapsedLabel(res))

	if shared.GetVerbose() && out.HasResponse() {
		cmd.Println()
		for _, h := range out.Headers {
			cmd.Printf("  %s: %s\n", h.Name, shared.MaskHeaderValue(h.Name, h.Value))
		}
		if out.Body != "" {
			contentType, _ := out.Header("Content-Type")
			cmd.Println()
			cmd.Println(format.FormatBody(out.Body, contentType, format.IsTTY()))
		}
	}
}

func elapsedLabel(res *probe.Result) string {
	if res.Attempts == 1 {
		return fmt.Sprintf("%dms, 1 attempt", res.ElapsedMS)
	}
	return fmt.Sprintf("%dms, %d attempts", res.ElapsedMS, res.Attempts)
}

// dryRunDocument is the JSON shape of a --dry-run preview. Header and
// query values that look like credentials are already masked.
type dryRunDocument struct {
	Method          string            `json:"method"`
	URL             string            `json:"url"`
	Query           map[string]string `json:"query,omitempty"`
	Headers         map[string]string `json:"headers,omitempty"`
	Timeout         string            `json:"timeout"`
	MaxRetries      int               `json:"max_retries"`
	FollowRedirects bool              `json:"follow_redirects"`
}

// renderDryRun prints the request that check would send, without sending
// it. Credential-bearing header and query values are masked so the
// preview is safe to share.
func renderDryRun(cmd *cobra.Command, opts *options, jqExec *jq.Executor, cfg *probe.RequestConfig) error {
	// The query block renders as its own section, masked per parameter.
	bare := *cfg
	bare.Query = ""
	target := probe.BuildURL(&bare)

	headers := probe.BuildHeaders(cfg)
	params := queryParams(cfg.Query)

	if shared.GetJSON() || opts.jqFilter != "" {
		doc := &dryRunDocument{
			Method:          "OPTIONS",
			URL:             target,
			Query:           map[string]string{},
			Headers:         map[string]string{},
			Timeout:         cfg.Timeout.String(),
			MaxRetries:      cfg.MaxRetries,
			FollowRedirects: cfg.FollowRedirects,
		}
		for _, p := range params {
			doc.Query[p.Name] = shared.MaskSensitiveData(p.Name, p.Value)
		}
		for _, h := range headers {
			doc.Headers[h.Name] = shared.MaskHeaderValue(h.Name, h.Value)
		}
		rendered, err := jqExec.Render(cmd.Context(), opts.jqFilter, doc)
		if err != nil {
			return shared.NewInvalidConfigError("jq filter failed", err)
		}
		cmd.Println(rendered)
		return nil
	}

	cmd.Printf("%s  OPTIONS %s\n", shared.RenderDryRun(), target)
	for _, p := range params {
		cmd.Printf("  %s %s=%s\n", shared.RenderLabel("query:"), p.Name, shared.MaskSensitiveData(p.Name, p.Value))
	}
	for _, h := range headers {
		cmd.Printf("  %s %s: %s\n", shared.RenderLabel("header:"), h.Name, shared.MaskHeaderValue(h.Name, h.Value))
	}
	cmd.Printf("  %s %s per attempt, %d retries\n", shared.RenderLabel("timeout:"), cfg.Timeout, cfg.MaxRetries)
	if !cfg.FollowRedirects {
		cmd.Printf("  %s reported, not followed\n", shared.RenderLabel("redirects:"))
	}
	cmd.Println()
	cmd.Println("dry run; no request sent")
	return nil
}

// queryParams splits the freeform query block into name/value pairs the
// same way the request composer does: one parameter per line, split on
// the first "=", lines without "=" or without a name dropped.
func queryParams(block string) []probe.Header {
	var params []probe.Header
	for _, line := range strings.Split(block, "\n") {
		name, value, ok := strings.Cut(line, "=")
		if !ok || name == "" {
			continue
		}
		params = append(params, probe.Header{Name: name, Value: value})
	}
	return params
}
