// Package jq filters command output with jq expressions.
package jq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/itchyny/gojq"
)

const (
	// DefaultTimeout bounds a single jq evaluation.
	DefaultTimeout = time.Second

	// DefaultMaxInputSize caps filter input after JSON encoding (10MB).
	DefaultMaxInputSize = 10 << 20
)

// Executor handles jq expression evaluation with timeout and size limits.
type Executor struct {
	timeout      time.Duration
	maxInputSize int64
}

// NewExecutor creates a jq executor. Zero values select the defaults.
func NewExecutor(timeout time.Duration, maxInputSize int64) *Executor {
	e := &Executor{timeout: timeout, maxInputSize: maxInputSize}
	if e.timeout == 0 {
		e.timeout = DefaultTimeout
	}
	if e.maxInputSize == 0 {
		e.maxInputSize = DefaultMaxInputSize
	}
	return e
}

// Render filters v with the jq expression and formats the output the way
// the jq CLI would: each produced value pretty-printed, one value per
// block, separated by newlines. v may be any JSON-marshalable Go value;
// it is normalized through encoding/json before filtering. An empty
// expression renders v unfiltered.
func (e *Executor) Render(ctx context.Context, expression string, v any) (string, error) {
	raw, err := e.boundedMarshal(v)
	if err != nil {
		return "", err
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", fmt.Errorf("failed to normalize input: %w", err)
	}

	results := []any{data}
	if expression != "" {
		if results, err = e.run(ctx, expression, data); err != nil {
			return "", err
		}
	}

	var b strings.Builder
	for i, result := range results {
		if i > 0 {
			b.WriteByte('\n')
		}
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal result: %w", err)
		}
		b.Write(out)
	}
	return b.String(), nil
}

// Execute runs a jq expression against the given data. The data must
// already be in gojq's value domain (the types produced by encoding/json
// unmarshaling into any). Multiple produced values collapse into a slice,
// a single value is returned directly, and no values yield nil.
func (e *Executor) Execute(ctx context.Context, expression string, data any) (any, error) {
	if expression == "" {
		return data, nil
	}

	if _, err := e.boundedMarshal(data); err != nil {
		return nil, err
	}

	results, err := e.run(ctx, expression, data)
	if err != nil {
		return nil, err
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

// Validate checks that a jq expression compiles. Flag parsing uses this
// to catch syntax errors before any probe runs.
func (e *Executor) Validate(expression string) error {
	if expression == "" {
		return nil
	}
	_, err := compile(expression)
	return err
}

// compile parses and compiles a jq expression.
func compile(expression string) (*gojq.Code, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("jq compilation failed: %w", err)
	}
	return code, nil
}

// run evaluates the expression, collecting every produced value.
// Evaluation is bounded by the executor timeout; gojq checks the context
// during execution, so runaway filters are interrupted rather than left
// running.
func (e *Executor) run(ctx context.Context, expression string, data any) ([]any, error) {
	code, err := compile(expression)
	if err != nil {
		return nil, err
	}

	execCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var results []any
	iter := code.RunWithContext(execCtx, data)
	for v, ok := iter.Next(); ok; v, ok = iter.Next() {
		if err, isErr := v.(error); isErr {
			if execCtx.Err() != nil {
				return nil, fmt.Errorf("execution timeout after %v", e.timeout)
			}
			return nil, err
		}
		results = append(results, v)
	}

	return results, nil
}

// boundedMarshal encodes v, enforcing the input size limit.
func (e *Executor) boundedMarshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input: %w", err)
	}
	if int64(len(raw)) > e.maxInputSize {
		return nil, fmt.Errorf("input size (%d bytes) exceeds maximum (%d bytes)",
			len(raw), e.maxInputSize)
	}
	return raw, nil
}
