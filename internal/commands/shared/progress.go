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
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/probekit/preflight/pkg/probe"
)

// progressNameWidth is the probe name column width in progress output.
const progressNameWidth = 35

// ProgressDisplay renders probe-run progress: an animated spinner for the
// in-flight probe and one completion line per finished probe. Without a
// TTY, or with progress disabled, it degrades to plain static lines.
type ProgressDisplay struct {
	mu         sync.Mutex
	isTTY      bool
	noProgress bool
	verbose    bool

	// In-flight probe. probeLogs holds its verbose log lines so redraws
	// can repaint them under the spinner.
	currentProbe   string
	probeStartTime time.Time
	probeIndex     int
	totalProbes    int
	probeLogs      []string

	completedProbes []CompletedProbe

	// Spinner state, guarded by mu.
	frameIdx int
	done     chan struct{}
	running  bool
}

// CompletedProbe tracks information about a completed probe.
type CompletedProbe struct {
	Name       string
	Signal     probe.Signal
	StatusCode int
	Duration   time.Duration

	// FailedChecks lists the expectation expressions that did not hold.
	// A probe with a success signal still fails when any check failed.
	FailedChecks []string
}

// Passed reports whether the probe succeeded and every check held.
func (c CompletedProbe) Passed() bool {
	return c.Signal == probe.SignalSuccess && len(c.FailedChecks) == 0
}

// NewProgressDisplay builds a display bound to stdout.
func NewProgressDisplay(noProgress, verbose bool) *ProgressDisplay {
	return &ProgressDisplay{
		isTTY:      term.IsTerminal(int(os.Stdout.Fd())),
		noProgress: noProgress,
		verbose:    verbose,
	}
}

// Start prints the run header.
func (p *ProgressDisplay) Start(fileName string, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	header := fmt.Sprintf("Probing: %s", fileName)
	if total > 0 {
		header += " " + Muted.Render(fmt.Sprintf("(%d probes)", total))
	}
	fmt.Println(header)
	fmt.Println()
}

// ProbeStarted is called when a probe begins execution.
func (p *ProgressDisplay) ProbeStarted(name string, index, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.currentProbe = name
	p.probeStartTime = time.Now()
	p.probeIndex = index
	p.totalProbes = total
	p.probeLogs = nil

	if p.interactive() {
		p.startSpinner()
	} else {
		fmt.Printf("  %s %s...\n", Muted.Render(SymbolInfo), name)
	}
}

// ProbeCompleted is called when a probe finishes execution. failedChecks
// lists the expectation expressions that did not hold, if any.
func (p *ProgressDisplay) ProbeCompleted(name string, signal probe.Signal, statusCode int, durationMs int64, failedChecks []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	completed := CompletedProbe{
		Name:         name,
		Signal:       signal,
		StatusCode:   statusCode,
		Duration:     time.Duration(durationMs) * time.Millisecond,
		FailedChecks: failedChecks,
	}
	p.completedProbes = append(p.completedProbes, completed)

	if p.interactive() {
		p.stopSpinner()
		if p.isTTY {
			eraseLines(len(p.probeLogs))
		}
	}
	p.printCompletedProbe(completed)

	p.currentProbe = ""
	p.probeLogs = nil
}

// LogMessage routes a verbose log line into the display: under the
// spinner while a probe runs, as a plain line otherwise.
func (p *ProgressDisplay) LogMessage(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.verbose {
		return
	}

	if p.interactive() && p.currentProbe != "" {
		p.probeLogs = append(p.probeLogs, message)
		p.redrawSpinnerLine()
	} else {
		fmt.Printf("    %s %s\n", Muted.Render("│"), message)
	}
}

// Finish stops any spinner and prints the pass/fail summary.
func (p *ProgressDisplay) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopSpinner()

	fmt.Println()

	passed := 0
	for _, completed := range p.completedProbes {
		if completed.Passed() {
			passed++
		}
	}

	if failed := len(p.completedProbes) - passed; failed > 0 {
		fmt.Printf("%s %d passed, %d failed\n", StatusError.Render(SymbolError), passed, failed)
	} else {
		fmt.Printf("%s %d passed\n", StatusOK.Render(SymbolOK), passed)
	}
}

// interactive reports whether animated output is on.
func (p *ProgressDisplay) interactive() bool {
	return p.isTTY && !p.noProgress
}

// startSpinner paints the spinner line and launches the animation
// goroutine. Safe to call while running.
func (p *ProgressDisplay) startSpinner() {
	if p.running {
		return
	}
	p.running = true
	p.done = make(chan struct{})
	p.frameIdx = 0

	p.renderSpinnerLine()
	go p.animate(p.done)
}

// stopSpinner halts the animation goroutine.
func (p *ProgressDisplay) stopSpinner() {
	if !p.running {
		return
	}
	p.running = false
	close(p.done)
}

// animate advances the spinner every 100ms until done closes.
func (p *ProgressDisplay) animate(done <-chan struct{}) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			p.mu.Lock()
			if p.running {
				p.frameIdx = (p.frameIdx + 1) % len(spinnerFrames)
				p.redrawSpinnerLine()
			}
			p.mu.Unlock()
		}
	}
}

// eraseLines clears the current line plus n lines above it.
func eraseLines(n int) {
	fmt.Print("\r\033[K")
	for range n {
		fmt.Print("\033[A\033[K")
	}
}

// renderSpinnerLine paints the in-flight probe with its position in the
// run and the elapsed time in a fixed column.
func (p *ProgressDisplay) renderSpinnerLine() {
	frame := spinnerFrames[p.frameIdx]
	if !ColorEnabled() {
		frame = "..."
	}

	label := p.currentProbe + "..."
	if p.totalProbes > 1 {
		label = fmt.Sprintf("[%d/%d] %s", p.probeIndex, p.totalProbes, label)
	}
	elapsed := Muted.Render("(" + formatDuration(time.Since(p.probeStartTime)) + ")")
	fmt.Printf("  %s %-*s %s", StatusInfo.Render(frame), progressNameWidth+19, label, elapsed)
}

// redrawSpinnerLine repaints the spinner and the verbose logs under it.
func (p *ProgressDisplay) redrawSpinnerLine() {
	if !p.isTTY {
		return
	}

	eraseLines(len(p.probeLogs))
	p.renderSpinnerLine()
	for _, log := range p.probeLogs {
		fmt.Printf("\n    %s %s", Muted.Render("│"), log)
	}
}

// printCompletedProbe prints a completed probe line, followed by one line
// per failed expectation.
func (p *ProgressDisplay) printCompletedProbe(completed CompletedProbe) {
	var symbol string
	switch {
	case completed.Passed():
		symbol = StatusOK.Render(SymbolOK)
	case completed.Signal == probe.SignalTimeout:
		symbol = StatusWarn.Render(SymbolWarn)
	default:
		symbol = StatusError.Render(SymbolError)
	}

	name := completed.Name
	if len(name) > progressNameWidth {
		name = name[:progressNameWidth-3] + "..."
	}

	fmt.Printf("  %s %-*s %s  %s\n",
		symbol,
		progressNameWidth, name,
		formatStatusValue(completed.Signal, completed.StatusCode),
		Muted.Render("("+formatDuration(completed.Duration)+")"),
	)

	for _, check := range completed.FailedChecks {
		fmt.Printf("      %s %s\n", StatusError.Render("expect failed:"), check)
	}
}

// formatStatusValue formats the status code column; transport-level
// failures have no status code and show the signal name instead.
func formatStatusValue(signal probe.Signal, statusCode int) string {
	if statusCode == 0 {
		return Muted.Render(string(signal))
	}
	return fmt.Sprintf("%d", statusCode)
}

// formatDuration renders elapsed time at 100ms resolution.
func formatDuration(d time.Duration) string {
	d = d.Round(100 * time.Millisecond)
	if m := int(d.Minutes()); m > 0 {
		return fmt.Sprintf("%dm %.0fs", m, d.Seconds()-float64(m*60))
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
