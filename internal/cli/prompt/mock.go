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
	"fmt"
)

// MockPrompter implements Prompter with a scripted response sequence so
// tests can drive collection flows without a terminal. Responses are
// consumed in order across all prompt kinds, and every call is recorded.
type MockPrompter struct {
	script      []interface{}
	cursor      int
	interactive bool
	calls       []string
}

// NewMockPrompter creates a mock prompter that replays the given responses.
func NewMockPrompter(interactive bool, responses ...interface{}) *MockPrompter {
	return &MockPrompter{
		script:      responses,
		interactive: interactive,
	}
}

// next consumes the next scripted response, reporting false once the
// script is exhausted.
func (mp *MockPrompter) next() (interface{}, bool) {
	if mp.cursor >= len(mp.script) {
		return nil, false
	}
	resp := mp.script[mp.cursor]
	mp.cursor++
	return resp, true
}

func (mp *MockPrompter) record(method, arg string) {
	mp.calls = append(mp.calls, fmt.Sprintf("%s(%s)", method, arg))
}

// PromptString replays the next scripted string, or the default once the
// script runs out.
func (mp *MockPrompter) PromptString(ctx context.Context, name, desc string, def string) (string, error) {
	mp.record("PromptString", name)

	resp, ok := mp.next()
	if !ok {
		return def, nil
	}
	str, ok := resp.(string)
	if !ok {
		return "", fmt.Errorf("mock response is not a string")
	}
	return str, nil
}

// PromptSecret replays the next scripted string. Secrets have no default,
// so an exhausted script is an error.
func (mp *MockPrompter) PromptSecret(ctx context.Context, name, desc string) (string, error) {
	mp.record("PromptSecret", name)

	resp, ok := mp.next()
	if !ok {
		return "", fmt.Errorf("no mock response available")
	}
	str, ok := resp.(string)
	if !ok {
		return "", fmt.Errorf("mock response is not a string")
	}
	return str, nil
}

// PromptConfirm replays the next scripted boolean, or the default once the
// script runs out.
func (mp *MockPrompter) PromptConfirm(ctx context.Context, message string, def bool) (bool, error) {
	mp.record("PromptConfirm", message)

	resp, ok := mp.next()
	if !ok {
		return def, nil
	}
	b, ok := resp.(bool)
	if !ok {
		return false, fmt.Errorf("mock response is not a boolean")
	}
	return b, nil
}

// IsInteractive returns the configured interactive state.
func (mp *MockPrompter) IsInteractive() bool {
	return mp.interactive
}

// GetCallLog returns the ordered record of prompt calls made so far.
func (mp *MockPrompter) GetCallLog() []string {
	return mp.calls
}

// Reset rewinds the script and clears the call log.
func (mp *MockPrompter) Reset() {
	mp.cursor = 0
	mp.calls = nil
}
