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

// globalFlags holds the values of the root command's persistent flags.
// Commands read them through the Get* accessors instead of threading the
// values through every constructor.
var globalFlags struct {
	verbose bool
	quiet   bool
	json    bool
	noColor bool
	config  string
}

// Build-time version information, injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// RegisterFlagPointers returns the pointers the root command binds its
// persistent flags to.
func RegisterFlagPointers() (verbose, quiet, json, noColor *bool, config *string) {
	return &globalFlags.verbose, &globalFlags.quiet, &globalFlags.json,
		&globalFlags.noColor, &globalFlags.config
}

// SetVersion records the build version information (called from main).
func SetVersion(v, c, b string) {
	version, commit, buildDate = v, c, b
}

// GetVersion returns the build version information.
func GetVersion() (string, string, string) {
	return version, commit, buildDate
}

// GetVerbose reports whether --verbose was passed.
func GetVerbose() bool { return globalFlags.verbose }

// GetQuiet reports whether --quiet was passed.
func GetQuiet() bool { return globalFlags.quiet }

// GetJSON reports whether --json was passed.
func GetJSON() bool { return globalFlags.json }

// GetNoColor reports whether --no-color was passed.
func GetNoColor() bool { return globalFlags.noColor }

// GetConfigPath returns the --config value, or "" for the default path.
func GetConfigPath() string { return globalFlags.config }

// SetConfigPathForTest overrides the config path in tests.
func SetConfigPathForTest(path string) {
	globalFlags.config = path
}
