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
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/probekit/preflight/pkg/probe"
)

// ANSI 256 palette shared by every command.
const (
	colorGreen  = lipgloss.Color("42")
	colorOrange = lipgloss.Color("214")
	colorRed    = lipgloss.Color("196")
	colorBlue   = lipgloss.Color("39")
	colorGray   = lipgloss.Color("245")
)

// Signal and status styles. Timeouts render as warnings: the endpoint
// may be fine and merely slow.
var (
	StatusOK    = lipgloss.NewStyle().Foreground(colorGreen)
	StatusWarn  = lipgloss.NewStyle().Foreground(colorOrange)
	StatusError = lipgloss.NewStyle().Foreground(colorRed)
	StatusInfo  = lipgloss.NewStyle().Foreground(colorBlue)

	// Muted styles labels and secondary text.
	Muted = lipgloss.NewStyle().Foreground(colorGray)
)

// Status symbols.
const (
	SymbolOK    = "✓"
	SymbolWarn  = "⚠"
	SymbolError = "✗"
	SymbolInfo  = "•"
)

// RenderOK renders a confirmation line marker.
func RenderOK(msg string) string {
	return StatusOK.Render(SymbolOK) + " " + msg
}

// RenderLabel renders the dim label of a "label: value" line.
func RenderLabel(label string) string {
	return Muted.Render(label)
}

// RenderSignal renders a terminal signal with its status color.
func RenderSignal(signal probe.Signal) string {
	label := string(signal)
	switch signal {
	case probe.SignalSuccess:
		return StatusOK.Render(SymbolOK + " " + label)
	case probe.SignalTimeout:
		return StatusWarn.Render(SymbolWarn + " " + label)
	default:
		return StatusError.Render(SymbolError + " " + label)
	}
}

// RenderDryRun renders the marker that stands in for the outcome signal
// on preview output.
func RenderDryRun() string {
	return StatusInfo.Render(SymbolInfo + " dry-run")
}

// ColorEnabled reports whether styled output should be used. Color is off
// when --no-color is set, NO_COLOR is in the environment, or stdout is not
// a terminal.
func ColorEnabled() bool {
	if GetNoColor() || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}
