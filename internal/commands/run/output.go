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
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/probekit/preflight/internal/commands/shared"
	"github.com/probekit/preflight/internal/expect"
)

// ProbeDocument is the JSON shape of one probe in a run report.
type ProbeDocument struct {
	Name string `json:"name"`
	*shared.ResultDocument
	Expectations []expect.Result `json:"expectations,omitempty"`
}

// ReportDocument is the JSON shape of a finished run. The MCP run tool
// returns the same document.
type ReportDocument struct {
	File    string          `json:"file"`
	Success bool            `json:"success"`
	Passed  int             `json:"passed"`
	Failed  int             `json:"failed"`
	Probes  []ProbeDocument `json:"probes"`
}

// NewReportDocument converts a report to its output document.
func NewReportDocument(r *Report) *ReportDocument {
	passed, failed := r.Counts()
	doc := &ReportDocument{
		File:    r.File,
		Success: failed == 0,
		Passed:  passed,
		Failed:  failed,
		Probes:  make([]ProbeDocument, 0, len(r.Results)),
	}
	for _, pr := range r.Results {
		doc.Probes = append(doc.Probes, ProbeDocument{
			Name:           pr.Name,
			ResultDocument: shared.NewResultDocument(pr.Result),
			Expectations:   pr.Checks,
		})
	}
	return doc
}

func emitReport(cmd *cobra.Command, r *Report) error {
	data, err := json.MarshalIndent(NewReportDocument(r), "", "  ")
	if err != nil {
		return shared.NewInvalidConfigError("failed to encode report", err)
	}
	cmd.Println(string(data))
	return nil
}
