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

// Package expect evaluates probe expectations: small boolean expressions
// checked against a finished invocation.
//
// Expectations are declared per probe in the probe file:
//
//	probes:
//	  - name: users
//	    url: https://api.example.com/v1/users
//	    expect:
//	      - status == 204
//	      - allow contains "POST"
//	      - elapsed_ms < 500
//
// The environment exposes signal, status, status_text, elapsed_ms,
// attempts, allow, allow_headers, max_age, headers (response-header map),
// and header(name) for case-insensitive lookup. The string operators
// contains, startsWith, endsWith, and matches come from the expression
// language itself.
//
// Expectations observe outcomes, they never change them: a failed
// expectation affects the command's exit status and report, not the
// probe's terminal signal.
package expect

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	preflighterrors "github.com/probekit/preflight/pkg/errors"
	"github.com/probekit/preflight/pkg/probe"
)

// Expectation is one compiled expectation expression.
type Expectation struct {
	// Source is the original expression text.
	Source string

	program *vm.Program
}

// Compile compiles one expectation. The expression may reference only the
// names of the outcome environment and must produce a boolean; anything
// else is rejected here, before any request is sent.
func Compile(source string) (*Expectation, error) {
	if strings.TrimSpace(source) == "" {
		return nil, &preflighterrors.ValidationError{
			Field:       "expect",
			Message:     "expectation is empty",
			SuggestText: "remove the entry or write a boolean expression such as 'status == 204'",
		}
	}

	program, err := expr.Compile(source,
		expr.Env(envSchema()),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &preflighterrors.ValidationError{
			Field:       "expect",
			Message:     fmt.Sprintf("failed to compile %q: %s", source, err),
			SuggestText: "expectations may reference signal, status, status_text, elapsed_ms, attempts, allow, allow_headers, max_age, headers, and header(name)",
		}
	}

	return &Expectation{Source: source, program: program}, nil
}

// CompileAll compiles a probe's expectation list, reporting the first
// failure.
func CompileAll(sources []string) ([]*Expectation, error) {
	expectations := make([]*Expectation, 0, len(sources))
	for _, source := range sources {
		expectation, err := Compile(source)
		if err != nil {
			return nil, err
		}
		expectations = append(expectations, expectation)
	}
	return expectations, nil
}

// Result is the outcome of one expectation.
type Result struct {
	// Expression is the expectation's source text.
	Expression string `json:"expression"`

	// Passed reports whether the expectation held.
	Passed bool `json:"passed"`

	// Error describes a failed evaluation, such as a type mismatch on
	// runtime values. An evaluation error counts as a failed expectation.
	Error string `json:"error,omitempty"`
}

// Evaluate runs every expectation against the invocation's outcome
// environment, one Result per expectation in input order.
func Evaluate(expectations []*Expectation, res *probe.Result) []Result {
	env := Env(res)
	results := make([]Result, 0, len(expectations))
	for _, expectation := range expectations {
		results = append(results, expectation.eval(env))
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

func (e *Expectation) eval(env map[string]any) Result {
	out, err := expr.Run(e.program, env)
	if err != nil {
		return Result{
			Expression: e.Source,
			Error:      fmt.Sprintf("evaluation failed: %s", err),
		}
	}

	passed, ok := out.(bool)
	if !ok {
		return Result{
			Expression: e.Source,
			Error:      fmt.Sprintf("expectation must produce a boolean, got %T", out),
		}
	}

	return Result{Expression: e.Source, Passed: passed}
}
