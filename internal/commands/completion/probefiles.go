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

package completion

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	maxProbeFiles  = 100
	maxSearchDepth = 2
)

// probeFile is a discovered probe file candidate with its modification time.
type probeFile struct {
	path    string
	modTime time.Time
}

// CompleteProbeFiles provides dynamic completion for probe file arguments.
// It discovers .yaml and .yml files up to two directory levels deep,
// keeping only files with a top-level 'probes:' key so unrelated YAML
// (CI configs, manifests) stays out of the suggestions. Results are
// newest first, capped at 100 files.
func CompleteProbeFiles(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		found, err := discoverProbeFiles(".", maxSearchDepth)
		if err != nil || len(found) == 0 {
			// Nothing recognizable nearby; let the shell complete paths.
			return []string{}, cobra.ShellCompDirectiveDefault
		}

		sort.Slice(found, func(i, j int) bool {
			return found[i].modTime.After(found[j].modTime)
		})
		found = found[:min(len(found), maxProbeFiles)]

		paths := make([]string, len(found))
		for i, f := range found {
			paths[i] = f.path
		}
		return paths, cobra.ShellCompDirectiveDefault
	})
}

// discoverProbeFiles collects probe files at most maxDepth levels below root.
// Hidden directories are pruned and symlinked files rejected.
func discoverProbeFiles(root string, maxDepth int) ([]probeFile, error) {
	var found []probeFile

	walk := func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable entries drop out of the suggestions.
			return nil
		}
		if path == root {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		depth := strings.Count(rel, string(filepath.Separator))

		if entry.IsDir() {
			// A directory at the depth limit can only hold files beyond it.
			if strings.HasPrefix(entry.Name(), ".") || depth >= maxDepth {
				return fs.SkipDir
			}
			return nil
		}

		if ext := filepath.Ext(path); ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if !isSafeFile(path) || !isProbeFile(path) {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return nil
		}
		found = append(found, probeFile{path: path, modTime: info.ModTime()})
		return nil
	}

	if err := filepath.WalkDir(root, walk); err != nil {
		return nil, err
	}
	return found, nil
}

// isSafeFile rejects symlinks: completion must not follow links out of the
// directory the user is working in.
func isSafeFile(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSymlink == 0
}

// isProbeFile reports whether a YAML file has a top-level 'probes' key.
// Unparsable files are skipped silently.
func isProbeFile(path string) bool {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return false
	}

	_, ok := doc["probes"]
	return ok
}
