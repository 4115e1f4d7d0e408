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

package cli

import (
	"testing"

	"github.com/probekit/preflight/internal/commands/shared"
)

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	if cmd.Use != "preflight" {
		t.Errorf("expected use 'preflight', got %q", cmd.Use)
	}
	if cmd.Short == "" || cmd.Long == "" {
		t.Error("root command descriptions not set")
	}
	if !cmd.SilenceUsage || !cmd.SilenceErrors {
		t.Error("root command must leave error rendering to HandleExitError")
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	tests := []struct {
		name      string
		shorthand string
	}{
		{name: "verbose", shorthand: "v"},
		{name: "quiet", shorthand: "q"},
		{name: "json"},
		{name: "no-color"},
		{name: "config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := cmd.PersistentFlags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("flag --%s not registered", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("flag --%s shorthand = %q, want %q", tt.name, flag.Shorthand, tt.shorthand)
			}
		})
	}
}

func TestSetVersion(t *testing.T) {
	SetVersion("0.7.1", "f00dcafe", "2026-03-14")
	defer shared.SetVersion("dev", "unknown", "unknown")

	v, c, b := shared.GetVersion()
	if v != "0.7.1" || c != "f00dcafe" || b != "2026-03-14" {
		t.Errorf("GetVersion() = %q %q %q", v, c, b)
	}
}
