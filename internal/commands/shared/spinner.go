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
)

// spinnerFrames is the braille animation shared by the single-probe
// spinner and the probe-run progress display.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 100 * time.Millisecond

// Spinner renders an in-place "message ⠋ (12s)" line while a single probe
// waits on a slow endpoint or a retry delay. On a non-TTY stdout it
// degrades to printing each message once, without animation.
type Spinner struct {
	mu      sync.Mutex
	label   string
	began   time.Time
	active  bool
	done    chan struct{}
	frame   int
	animate bool
}

// NewSpinner creates a spinner. Animation engages only when stdout is a
// terminal.
func NewSpinner() *Spinner {
	return &Spinner{animate: term.IsTerminal(int(os.Stdout.Fd()))}
}

// Start shows the message and begins animating. Starting an already
// running spinner is a no-op.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return
	}
	s.label = message
	s.began = time.Now()
	s.active = true
	s.done = make(chan struct{})
	s.frame = 0

	if !s.animate {
		fmt.Println(message)
		return
	}
	s.draw()
	go s.tick(s.done)
}

// UpdateMessage swaps the displayed message without restarting the
// elapsed timer; the retry loop uses it to show which attempt is running.
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || s.label == message {
		return
	}
	s.label = message

	if s.animate {
		s.draw()
	} else {
		fmt.Println(message)
	}
}

// Stop ends the animation and clears the line, returning the elapsed
// time since Start.
func (s *Spinner) Stop() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return 0
	}
	elapsed := time.Since(s.began)
	s.active = false
	close(s.done)

	if s.animate {
		eraseLines(0)
	}
	return elapsed
}

func (s *Spinner) tick(done <-chan struct{}) {
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.active {
				s.frame = (s.frame + 1) % len(spinnerFrames)
				s.draw()
			}
			s.mu.Unlock()
		}
	}
}

// draw repaints the line; callers hold mu.
func (s *Spinner) draw() {
	frame := spinnerFrames[s.frame]
	if !ColorEnabled() {
		frame = "..."
	}
	eraseLines(0)
	fmt.Printf("%s %s %s", s.label, Muted.Render(frame),
		Muted.Render("("+formatElapsed(time.Since(s.began))+")"))
}

// formatElapsed renders whole seconds ("12s") below a minute and
// "1m 23s" above it.
func formatElapsed(d time.Duration) string {
	secs := int(d.Round(time.Second).Seconds())
	switch m, rest := secs/60, secs%60; {
	case m == 0:
		return fmt.Sprintf("%ds", rest)
	case rest == 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%dm %ds", m, rest)
	}
}
