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

package watch

import (
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// PatternMatcher decides which filesystem events are worth acting on.
// A path matches when it satisfies at least one include pattern (an empty
// include list admits everything) and no exclude pattern.
type PatternMatcher struct {
	include []string
	exclude []string
}

// NewPatternMatcher validates the glob patterns and builds a matcher.
func NewPatternMatcher(includePatterns, excludePatterns []string) (*PatternMatcher, error) {
	if err := validateGlobs("include", includePatterns); err != nil {
		return nil, err
	}
	if err := validateGlobs("exclude", excludePatterns); err != nil {
		return nil, err
	}
	return &PatternMatcher{include: includePatterns, exclude: excludePatterns}, nil
}

func validateGlobs(kind string, patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid %s pattern %q", kind, p)
		}
	}
	return nil
}

// Match reports whether path passes the include and exclude patterns.
func (m *PatternMatcher) Match(path string) bool {
	if len(m.include) > 0 {
		included := false
		for _, pattern := range m.include {
			if m.matchPattern(pattern, path) {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}

	for _, pattern := range m.exclude {
		if m.matchPattern(pattern, path) {
			return false
		}
	}

	return true
}

// matchPattern matches against the full path first, then against the base
// name so bare-name patterns work for events from any directory.
func (m *PatternMatcher) matchPattern(pattern, path string) bool {
	if matched, err := doublestar.PathMatch(pattern, path); err == nil && matched {
		return true
	}
	matched, err := doublestar.Match(pattern, filepath.Base(path))
	return err == nil && matched
}

// DefaultExcludePatterns filters out the temp files editors and the OS
// drop next to the file being edited.
func DefaultExcludePatterns() []string {
	return []string{
		// Vim
		"*.swp",
		"*.swo",
		"*.swn",
		".*.sw?",
		"4913", // vim writability probe

		// Emacs
		"*~",
		"#*#",
		".#*",

		// System
		".DS_Store",
		"Thumbs.db",
		"*.tmp",
		"*.temp",
	}
}
