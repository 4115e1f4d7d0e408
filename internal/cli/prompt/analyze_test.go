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
	"testing"

	"github.com/probekit/preflight/pkg/probe"
)

func missingNames(configs []PromptConfig) []string {
	names := make([]string, 0, len(configs))
	for _, c := range configs {
		names = append(names, c.Name)
	}
	return names
}

func TestFindMissingCredentials(t *testing.T) {
	tests := []struct {
		name     string
		auth     probe.AuthScheme
		provided map[string]bool
		want     []string
	}{
		{
			name: "bearer with token has nothing missing",
			auth: probe.AuthScheme{Type: probe.AuthBearer, Token: "tok-1"},
			want: []string{},
		},
		{
			name: "bearer without token needs token",
			auth: probe.AuthScheme{Type: probe.AuthBearer},
			want: []string{FieldToken},
		},
		{
			name: "api key without token needs token",
			auth: probe.AuthScheme{Type: probe.AuthAPIKey},
			want: []string{FieldToken},
		},
		{
			name: "basic without anything needs username and password",
			auth: probe.AuthScheme{Type: probe.AuthBasic},
			want: []string{FieldUsername, FieldPassword},
		},
		{
			name: "basic with username needs password only",
			auth: probe.AuthScheme{Type: probe.AuthBasic, Username: "admin"},
			want: []string{FieldPassword},
		},
		{
			name:     "explicitly empty password is not re-prompted",
			auth:     probe.AuthScheme{Type: probe.AuthBasic, Username: "admin"},
			provided: map[string]bool{FieldPassword: true},
			want:     []string{},
		},
		{
			name: "custom header needs name and value",
			auth: probe.AuthScheme{Type: probe.AuthCustomHeader},
			want: []string{FieldHeaderName, FieldToken},
		},
		{
			name: "custom header with name needs value only",
			auth: probe.AuthScheme{Type: probe.AuthCustomHeader, HeaderName: "X-Auth"},
			want: []string{FieldToken},
		},
		{
			name: "none needs nothing",
			auth: probe.AuthScheme{Type: probe.AuthNone},
			want: []string{},
		},
		{
			name: "empty type needs nothing",
			auth: probe.AuthScheme{},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := NewCredentialAnalyzer(tt.auth, tt.provided)
			got := missingNames(analyzer.FindMissingCredentials())

			if len(got) != len(tt.want) {
				t.Fatalf("expected %v missing, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("missing[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFindMissingCredentials_SecretFlags(t *testing.T) {
	analyzer := NewCredentialAnalyzer(probe.AuthScheme{Type: probe.AuthBasic}, nil)
	missing := analyzer.FindMissingCredentials()

	if len(missing) != 2 {
		t.Fatalf("expected 2 missing credentials, got %d", len(missing))
	}
	if missing[0].Secret {
		t.Error("username should not be a secret prompt")
	}
	if !missing[1].Secret {
		t.Error("password should be a secret prompt")
	}
}

func TestApplyCollected(t *testing.T) {
	auth := probe.AuthScheme{Type: probe.AuthBasic, Username: "admin"}
	analyzer := NewCredentialAnalyzer(auth, nil)

	applied := analyzer.ApplyCollected(map[string]string{
		FieldPassword: "s3cret",
		FieldUsername: "ignored",
	})

	if applied.Password != "s3cret" {
		t.Errorf("expected collected password, got %q", applied.Password)
	}
	if applied.Username != "admin" {
		t.Errorf("existing username must not be overwritten, got %q", applied.Username)
	}
	// Original is untouched
	if auth.Password != "" {
		t.Error("ApplyCollected must not mutate the analyzed scheme")
	}
}

func TestApplyCollected_CustomHeader(t *testing.T) {
	analyzer := NewCredentialAnalyzer(probe.AuthScheme{Type: probe.AuthCustomHeader}, nil)

	applied := analyzer.ApplyCollected(map[string]string{
		FieldHeaderName: "X-Auth-Token",
		FieldToken:      "abc",
	})

	if applied.HeaderName != "X-Auth-Token" {
		t.Errorf("expected collected header name, got %q", applied.HeaderName)
	}
	if applied.Token != "abc" {
		t.Errorf("expected collected token, got %q", applied.Token)
	}
}
