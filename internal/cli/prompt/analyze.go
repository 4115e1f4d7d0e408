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
	"github.com/probekit/preflight/pkg/probe"
)

// Credential field names used by the analyzer and collector.
const (
	FieldToken      = "token"
	FieldUsername   = "username"
	FieldPassword   = "password"
	FieldHeaderName = "header-name"
)

// CredentialAnalyzer inspects an auth scheme and identifies credential
// fields that still need to be collected. The provided map records fields
// the user set explicitly (even to an empty value, e.g. --password "");
// those are never re-prompted.
type CredentialAnalyzer struct {
	auth     probe.AuthScheme
	provided map[string]bool
}

// NewCredentialAnalyzer creates a new credential analyzer.
func NewCredentialAnalyzer(auth probe.AuthScheme, provided map[string]bool) *CredentialAnalyzer {
	return &CredentialAnalyzer{
		auth:     auth,
		provided: provided,
	}
}

// FindMissingCredentials identifies credential fields the selected auth
// scheme needs but which are neither set nor explicitly provided.
func (ca *CredentialAnalyzer) FindMissingCredentials() []PromptConfig {
	missing := make([]PromptConfig, 0)

	need := func(field string, current string, config PromptConfig) {
		if current != "" || ca.provided[field] {
			return
		}
		missing = append(missing, config)
	}

	switch ca.auth.Type {
	case probe.AuthBearer:
		need(FieldToken, ca.auth.Token, PromptConfig{
			Name:        FieldToken,
			Description: "bearer token",
			Secret:      true,
		})

	case probe.AuthAPIKey:
		need(FieldToken, ca.auth.Token, PromptConfig{
			Name:        FieldToken,
			Description: "API key",
			Secret:      true,
		})

	case probe.AuthBasic:
		need(FieldUsername, ca.auth.Username, PromptConfig{
			Name:        FieldUsername,
			Description: "username for basic auth",
		})
		need(FieldPassword, ca.auth.Password, PromptConfig{
			Name:        FieldPassword,
			Description: "password for basic auth",
			Secret:      true,
		})

	case probe.AuthCustomHeader:
		need(FieldHeaderName, ca.auth.HeaderName, PromptConfig{
			Name:        FieldHeaderName,
			Description: "header name for the credential",
		})
		need(FieldToken, ca.auth.Token, PromptConfig{
			Name:        FieldToken,
			Description: "header value",
			Secret:      true,
		})
	}

	return missing
}

// ApplyCollected returns a copy of the auth scheme with collected values
// filled into empty fields.
func (ca *CredentialAnalyzer) ApplyCollected(values map[string]string) probe.AuthScheme {
	auth := ca.auth

	if v, ok := values[FieldToken]; ok && auth.Token == "" {
		auth.Token = v
	}
	if v, ok := values[FieldUsername]; ok && auth.Username == "" {
		auth.Username = v
	}
	if v, ok := values[FieldPassword]; ok && auth.Password == "" {
		auth.Password = v
	}
	if v, ok := values[FieldHeaderName]; ok && auth.HeaderName == "" {
		auth.HeaderName = v
	}

	return auth
}
