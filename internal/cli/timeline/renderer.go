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

// Package timeline renders an ASCII timeline of a probe run.
package timeline

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/probekit/preflight/pkg/probe"
)

const (
	// MinTerminalWidth is the narrowest terminal the timeline fits in.
	MinTerminalWidth = 80
	// DefaultBarWidth is the default width for duration bars.
	DefaultBarWidth = 40

	// StatusIconOK marks a success signal.
	StatusIconOK = "✓"
	// StatusIconTimeout marks a timeout signal.
	StatusIconTimeout = "⚠"
	// StatusIconError marks every other signal.
	StatusIconError = "✗"
)

// ProbeSpan is one probe execution placed on the run's time axis.
type ProbeSpan struct {
	Name       string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Signal     probe.Signal
	StatusCode int
}

// Renderer draws ASCII timelines from probe spans.
type Renderer struct {
	Width    int
	BarWidth int
}

// NewRenderer creates a renderer sized to the current terminal. Narrow
// terminals are refused so the caller can skip the timeline.
func NewRenderer() (*Renderer, error) {
	width, _, err := term.GetSize(0)
	if err != nil {
		width = 100
	}
	if width < MinTerminalWidth {
		return nil, fmt.Errorf("terminal is %d columns wide, need at least %d", width, MinTerminalWidth)
	}

	// The name, duration, icon, and status code columns take about 50
	// cells; the bar gets the rest, within limits.
	return &Renderer{
		Width:    width,
		BarWidth: min(max(width-50, DefaultBarWidth), 60),
	}, nil
}

// Render draws the probes of one run as horizontal bars on a shared time
// axis, boxed with the run label and total wall time.
func (r *Renderer) Render(runLabel string, spans []ProbeSpan) (string, error) {
	if len(spans) == 0 {
		return "", fmt.Errorf("no probes to render")
	}

	start, end := runBounds(spans)
	total := end.Sub(start)
	if total <= 0 {
		total = time.Millisecond
	}

	var sb strings.Builder
	sb.WriteString(r.rule("┌", "┐"))
	sb.WriteString(fmt.Sprintf("│ Run: %-*s Total: %s  │\n",
		r.Width-23, truncate(runLabel, r.Width-23), formatDuration(total)))
	sb.WriteString(r.rule("├", "┤"))
	for _, span := range spans {
		sb.WriteString(r.renderSpan(span, start, total))
	}
	sb.WriteString(r.rule("└", "┘"))

	return sb.String(), nil
}

// rule draws one horizontal border line.
func (r *Renderer) rule(left, right string) string {
	return left + strings.Repeat("─", r.Width-2) + right + "\n"
}

// runBounds finds the earliest start and latest end across all spans.
func runBounds(spans []ProbeSpan) (time.Time, time.Time) {
	start, end := spans[0].StartTime, spans[0].EndTime
	for _, span := range spans[1:] {
		if span.StartTime.Before(start) {
			start = span.StartTime
		}
		if span.EndTime.After(end) {
			end = span.EndTime
		}
	}
	return start, end
}

// renderSpan draws one probe as a positioned bar with its duration,
// signal icon, and status code.
func (r *Renderer) renderSpan(span ProbeSpan, start time.Time, total time.Duration) string {
	pos, length := r.barBounds(span, start, total)
	bar := strings.Repeat("░", pos) + strings.Repeat("█", length) +
		strings.Repeat("░", r.BarWidth-pos-length)

	code := ""
	if span.StatusCode > 0 {
		code = fmt.Sprintf("%d", span.StatusCode)
	}

	return fmt.Sprintf("│ %-20s %s  %6s  %s  %8s │\n",
		truncate(span.Name, 20), bar, formatDuration(span.Duration),
		signalIcon(span.Signal), code)
}

// barBounds maps a span onto bar cells, clamped to the bar and at least
// one cell long so instant probes stay visible.
func (r *Renderer) barBounds(span ProbeSpan, start time.Time, total time.Duration) (pos, length int) {
	pos = int(float64(span.StartTime.Sub(start)) / float64(total) * float64(r.BarWidth))
	length = max(int(float64(span.Duration)/float64(total)*float64(r.BarWidth)), 1)

	if pos >= r.BarWidth {
		pos = r.BarWidth - 1
	}
	if pos+length > r.BarWidth {
		length = r.BarWidth - pos
	}
	return pos, length
}

// signalIcon maps a probe signal to its timeline icon.
func signalIcon(signal probe.Signal) string {
	switch signal {
	case probe.SignalSuccess:
		return StatusIconOK
	case probe.SignalTimeout:
		return StatusIconTimeout
	default:
		return StatusIconError
	}
}

// truncate shortens a string to limit bytes, with an ellipsis when it
// fits.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	if limit <= 3 {
		return s[:limit]
	}
	return s[:limit-3] + "..."
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
}
