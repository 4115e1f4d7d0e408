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
	"os"
	"testing"
)

// detectionVars lists every environment variable the detection inspects.
var detectionVars = []string{
	"PREFLIGHT_NON_INTERACTIVE",
	"CI",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"CIRCLECI",
	"JENKINS_HOME",
}

// setDetectionEnv clears all detection-relevant variables, applies the
// given ones, and restores the original environment on cleanup.
func setDetectionEnv(t *testing.T, envVars map[string]string) {
	t.Helper()

	saved := make(map[string]string, len(detectionVars))
	for _, key := range detectionVars {
		saved[key] = os.Getenv(key)
		os.Unsetenv(key)
	}
	t.Cleanup(func() {
		for key, value := range saved {
			if value == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, value)
			}
		}
	})

	for key, value := range envVars {
		os.Setenv(key, value)
	}
}

// Only positive cases: with the environment clean, IsNonInteractive still
// reports true whenever the test process runs without a stdin TTY, so a
// negative case would depend on how the tests were launched.
func TestIsNonInteractive(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name:    "explicit override",
			envVars: map[string]string{"PREFLIGHT_NON_INTERACTIVE": "true"},
		},
		{
			name:    "generic CI true",
			envVars: map[string]string{"CI": "true"},
		},
		{
			name:    "generic CI numeric",
			envVars: map[string]string{"CI": "1"},
		},
		{
			name:    "github actions",
			envVars: map[string]string{"GITHUB_ACTIONS": "true"},
		},
		{
			name:    "jenkins home path",
			envVars: map[string]string{"JENKINS_HOME": "/var/jenkins"},
		},
		{
			name: "several indicators at once",
			envVars: map[string]string{
				"CI":             "true",
				"GITHUB_ACTIONS": "true",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setDetectionEnv(t, tt.envVars)

			if !IsNonInteractive() {
				t.Error("IsNonInteractive() = false, want true")
			}
		})
	}
}

func TestIsCIEnvironment(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		want    bool
	}{
		{
			name: "clean environment",
			want: false,
		},
		{
			name:    "CI true",
			envVars: map[string]string{"CI": "true"},
			want:    true,
		},
		{
			name:    "CI numeric",
			envVars: map[string]string{"CI": "1"},
			want:    true,
		},
		{
			name:    "CI explicitly false",
			envVars: map[string]string{"CI": "false"},
			want:    false,
		},
		{
			name:    "gitlab",
			envVars: map[string]string{"GITLAB_CI": "true"},
			want:    true,
		},
		{
			name:    "circle",
			envVars: map[string]string{"CIRCLECI": "true"},
			want:    true,
		},
		{
			name:    "jenkins home carries a path",
			envVars: map[string]string{"JENKINS_HOME": "/var/jenkins"},
			want:    true,
		},
		{
			name:    "jenkins home empty",
			envVars: map[string]string{"JENKINS_HOME": ""},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setDetectionEnv(t, tt.envVars)

			if got := isCIEnvironment(); got != tt.want {
				t.Errorf("isCIEnvironment() = %v, want %v", got, tt.want)
			}
		})
	}
}
