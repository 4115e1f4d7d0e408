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
	"github.com/spf13/cobra"
)

// CompleteAuthTypes completes --auth values, one entry per scheme.
func CompleteAuthTypes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		types := []string{
			"none\tNo authentication",
			"bearer\tAuthorization: Bearer <token>",
			"api_key\tX-API-Key header",
			"basic\tHTTP basic auth",
			"custom_header\tCredential in a named header",
		}
		return types, cobra.ShellCompDirectiveNoFileComp
	})
}

// CompleteSignals completes the --signal filter on history listings.
func CompleteSignals(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		signals := []string{
			"success\t2xx response",
			"client-error\t4xx response",
			"server-error\t5xx response",
			"network-error\tConnection failed",
			"timeout\tAttempt exceeded its timeout",
		}
		return signals, cobra.ShellCompDirectiveNoFileComp
	})
}

// CompleteSecretsBackend completes --backend values. Only the writable
// backends appear; env secrets come from the process environment.
func CompleteSecretsBackend(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		backends := []string{
			"keychain\tSystem keychain (macOS/Linux/Windows)",
			"file\tEncrypted file on disk",
		}
		return backends, cobra.ShellCompDirectiveNoFileComp
	})
}
