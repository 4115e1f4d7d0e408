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

// Package prompt provides interactive credential collection for probes.
// It supports masked secret entry with validation, retry logic, and
// non-interactive mode for CI/CD environments.
package prompt

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2/terminal"
)

// MaxRetries is the maximum number of validation retry attempts per input.
const MaxRetries = 3

// Prompter defines the interface for interactive input collection.
// Implementations include SurveyPrompter (production) and MockPrompter (testing).
type Prompter interface {
	// PromptString collects a plain string input from the user
	PromptString(ctx context.Context, name, desc string, def string) (string, error)

	// PromptSecret collects a masked secret input from the user
	PromptSecret(ctx context.Context, name, desc string) (string, error)

	// PromptConfirm asks a yes/no question
	PromptConfirm(ctx context.Context, message string, def bool) (bool, error)

	// IsInteractive returns true if prompts can be displayed
	IsInteractive() bool
}

// PromptConfig describes a single credential to collect. Missing
// credentials are always required, so there is no default value.
type PromptConfig struct {
	Name        string
	Description string
	// Secret selects masked input; the collected value is never echoed.
	Secret bool
}

// CredentialCollector manages a prompt session for collecting missing
// credentials before a probe runs.
type CredentialCollector struct {
	prompter Prompter
	step     int
	steps    int
}

// NewCredentialCollector creates a new collector with the given prompter.
func NewCredentialCollector(p Prompter) *CredentialCollector {
	return &CredentialCollector{prompter: p}
}

// SetProgress positions the collector within a multi-credential session.
func (cc *CredentialCollector) SetProgress(current, total int) {
	cc.step = current
	cc.steps = total
}

// FormatProgressPrefix returns the progress indicator shown before each
// prompt description. Single-credential sessions produce no prefix.
func (cc *CredentialCollector) FormatProgressPrefix() string {
	if cc.steps > 1 {
		return fmt.Sprintf("[Credential %d of %d] ", cc.step, cc.steps)
	}
	return ""
}

// CollectCredential prompts for a single credential, retrying on
// validation failure up to MaxRetries attempts. Interrupts and context
// cancellation abort immediately instead of burning retries.
func (cc *CredentialCollector) CollectCredential(ctx context.Context, config PromptConfig) (string, error) {
	desc := cc.FormatProgressPrefix() + config.Description

	var lastErr error
	for attempt := 1; attempt <= MaxRetries; attempt++ {
		var value string
		var err error
		if config.Secret {
			value, err = cc.prompter.PromptSecret(ctx, config.Name, desc)
		} else {
			value, err = cc.prompter.PromptString(ctx, config.Name, desc, "")
		}
		if err == nil {
			return value, nil
		}
		if errors.Is(err, terminal.InterruptErr) || ctx.Err() != nil {
			return "", err
		}

		lastErr = err
		// Surface the failure without echoing what was typed.
		if attempt < MaxRetries {
			fmt.Printf("Error: invalid value for %s\n", config.Name)
		}
	}

	return "", fmt.Errorf("failed to collect %s after %d attempts: %w", config.Name, MaxRetries, lastErr)
}

// CollectCredentials prompts for each credential in sequence and returns
// the collected values keyed by field name.
func (cc *CredentialCollector) CollectCredentials(ctx context.Context, configs []PromptConfig) (map[string]string, error) {
	values := make(map[string]string, len(configs))

	for i, config := range configs {
		cc.SetProgress(i+1, len(configs))

		value, err := cc.CollectCredential(ctx, config)
		if err != nil {
			return nil, err
		}
		values[config.Name] = value
	}

	return values, nil
}

// Confirm asks a yes/no question through the collector's prompter.
func (cc *CredentialCollector) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	return cc.prompter.PromptConfirm(ctx, message, def)
}
