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

package prompt

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
)

// errNotInteractive is returned when a prompt is requested without a TTY.
var errNotInteractive = errors.New("cannot prompt in non-interactive mode")

// SurveyPrompter implements Prompter on top of the survey library.
type SurveyPrompter struct {
	interactive bool
}

// NewSurveyPrompter creates a survey-backed prompter. Callers decide
// interactivity, typically from TTY detection and the --non-interactive
// flag.
func NewSurveyPrompter(interactive bool) *SurveyPrompter {
	return &SurveyPrompter{interactive: interactive}
}

// guard rejects prompting when the session is non-interactive or the
// context is already done.
func (sp *SurveyPrompter) guard(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !sp.interactive {
		return errNotInteractive
	}
	return nil
}

// stringValidator adapts a string validation function to survey's shape.
func stringValidator(validate func(string) error) survey.Validator {
	return func(ans interface{}) error {
		str, ok := ans.(string)
		if !ok {
			return nil
		}
		return validate(str)
	}
}

// PromptString collects a plain string input using survey.Input.
func (sp *SurveyPrompter) PromptString(ctx context.Context, name, desc string, def string) (string, error) {
	if err := sp.guard(ctx); err != nil {
		return "", err
	}

	var result string
	input := &survey.Input{
		Message: fmt.Sprintf("%s: %s", name, desc),
		Default: def,
	}
	err := survey.AskOne(input, &result, survey.WithValidator(stringValidator(ValidateString)))
	return result, err
}

// PromptSecret collects a masked secret using survey.Password. The value
// is validated but never echoed.
func (sp *SurveyPrompter) PromptSecret(ctx context.Context, name, desc string) (string, error) {
	if err := sp.guard(ctx); err != nil {
		return "", err
	}

	var result string
	password := &survey.Password{
		Message: fmt.Sprintf("%s: %s", name, desc),
	}
	err := survey.AskOne(password, &result, survey.WithValidator(stringValidator(ValidateSecret)))
	return result, err
}

// PromptConfirm asks a yes/no question using survey.Confirm.
func (sp *SurveyPrompter) PromptConfirm(ctx context.Context, message string, def bool) (bool, error) {
	if err := sp.guard(ctx); err != nil {
		return false, err
	}

	var result bool
	confirm := &survey.Confirm{
		Message: message,
		Default: def,
	}
	err := survey.AskOne(confirm, &result)
	return result, err
}

// IsInteractive reports whether prompts can be displayed.
func (sp *SurveyPrompter) IsInteractive() bool {
	return sp.interactive
}
