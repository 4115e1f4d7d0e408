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
	"path/filepath"
)

// DefaultProbeFiles are the file names searched, in order, when no
// probe file argument is given.
var DefaultProbeFiles = []string{"preflight.yaml", "preflight.yml", "probes.yaml"}

// ResolveProbePath resolves a probe file argument to an actual file path.
// Resolution order:
// 1. If arg is empty, search the current directory for a default file
// 2. If arg exists as file, return it
// 3. If arg is a directory with preflight.yaml, return that
// 4. Try arg.yaml in current directory
// 5. Try arg/preflight.yaml
func ResolveProbePath(arg string) (string, error) {
	if arg == "" {
		for _, name := range DefaultProbeFiles {
			if _, err := os.Stat(name); err == nil {
				return name, nil
			}
		}
		return "", fmt.Errorf("no probe file found: tried %v in current directory", DefaultProbeFiles)
	}

	// 1. Check if arg exists as-is
	info, err := os.Stat(arg)
	if err == nil {
		if info.IsDir() {
			// It's a directory - look for preflight.yaml inside
			probePath := filepath.Join(arg, "preflight.yaml")
			if _, err := os.Stat(probePath); err == nil {
				return probePath, nil
			}
			return "", fmt.Errorf("directory %q exists but does not contain preflight.yaml", arg)
		}
		// It's a file
		return arg, nil
	}

	// 2. Not found as-is. Try arg.yaml in current directory
	yamlPath := arg + ".yaml"
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath, nil
	}

	// 3. Try arg/preflight.yaml
	dirProbePath := filepath.Join(arg, "preflight.yaml")
	if _, err := os.Stat(dirProbePath); err == nil {
		return dirProbePath, nil
	}

	// 4. Nothing found - return helpful error
	return "", fmt.Errorf("probe file not found: tried %q, %q, and %q", arg, yamlPath, dirProbePath)
}
