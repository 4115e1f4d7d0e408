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

package mcp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// validateProbePath guards the probe file paths that tool callers hand us.
// The server reads files on behalf of a remote client, so paths must stay
// inside the working directory or a directory listed in
// PREFLIGHT_ALLOWED_PATHS. Traversal sequences are rejected outright, and
// symlinks are resolved before the containment check so a link cannot
// escape an allowed directory.
func validateProbePath(path string) error {
	if path == "" {
		return fmt.Errorf("path is empty")
	}
	if strings.Contains(path, "..") {
		return fmt.Errorf("path contains directory traversal sequence (..)")
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to resolve symlinks: %w", err)
		}
		// Missing files fail later with a clear read error.
		resolved = abs
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	if within(resolved, cwd) {
		return nil
	}

	allowed := os.Getenv("PREFLIGHT_ALLOWED_PATHS")
	if allowed == "" {
		return fmt.Errorf("path is outside current directory and PREFLIGHT_ALLOWED_PATHS is not set")
	}
	for _, dir := range filepath.SplitList(allowed) {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		if within(resolved, absDir) {
			return nil
		}
	}
	return fmt.Errorf("path is not within current directory or PREFLIGHT_ALLOWED_PATHS")
}

// within reports whether path is dir or sits under it. Both arguments
// must already be absolute and cleaned. The trailing separator keeps
// /foo from matching /foobar.
func within(path, dir string) bool {
	return path == dir || strings.HasPrefix(path+string(filepath.Separator), dir+string(filepath.Separator))
}
