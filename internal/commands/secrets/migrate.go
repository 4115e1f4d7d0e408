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

package secrets

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/probekit/preflight/internal/cli/prompt"
	"github.com/probekit/preflight/internal/commands/completion"
	"github.com/probekit/preflight/internal/commands/shared"
	"github.com/probekit/preflight/internal/config"
	"github.com/probekit/preflight/internal/secrets"
)

type migrateOptions struct {
	file    string
	backend string
	dryRun  bool
	yes     bool
}

func newMigrateCommand() *cobra.Command {
	opts := &migrateOptions{}

	cmd := &cobra.Command{
		Use:   "migrate [file]",
		Short: "Move plaintext probe credentials into secret storage",
		Long: `Move plaintext credentials out of a probe file.

Scans the file for literal token, password, and client_secret values,
stores each in the backend chain, and rewrites the file to reference
them as secret://<probe>/<field>. A timestamped backup of the original
is written first. Values that are already ${VAR} or secret://
references are left alone.

Examples:
  preflight secrets migrate probes.yaml
  preflight secrets migrate probes.yaml --dry-run
  preflight secrets migrate probes.yaml --yes --backend file`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completion.CompleteProbeFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.file = args[0]
			}
			return runMigrate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.backend, "backend", "", "target backend (keychain, file)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "report what would move without changing anything")
	cmd.Flags().BoolVar(&opts.yes, "yes", false, "skip the confirmation prompt")
	_ = cmd.RegisterFlagCompletionFunc("backend", completion.CompleteSecretsBackend)

	return cmd
}

// migrationTarget is one plaintext credential found in a probe file.
type migrationTarget struct {
	Probe string
	Field string
	Key   string
	Value string
}

func runMigrate(cmd *cobra.Command, opts *migrateOptions) error {
	ctx := cmd.Context()

	path, err := shared.ResolveProbePath(opts.file)
	if err != nil {
		return shared.NewMissingInputError(err.Error(), err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return shared.NewMissingInputError(fmt.Sprintf("failed to read %s", path), err)
	}

	file, err := config.ParseProbeFile(data)
	if err != nil {
		return shared.NewInvalidConfigError(fmt.Sprintf("invalid probe file %s", path), err)
	}

	targets := scanPlaintextCredentials(file)
	if len(targets) == 0 {
		cmd.Println("no plaintext credentials found; nothing to migrate")
		return nil
	}

	cmd.Printf("found %d plaintext credential(s) in %s:\n\n", len(targets), path)
	for i, tgt := range targets {
		cmd.Printf("%d. %s %s\n", i+1, tgt.Probe, shared.Muted.Render(tgt.Field))
		cmd.Printf("   current: %s\n", maskSecret(tgt.Value))
		cmd.Printf("   new ref: secret://%s\n\n", tgt.Key)
	}

	if opts.dryRun {
		out := shared.NewDryRunOutput()
		out.Add(shared.DryRunActionCreate, path+".backup.<timestamp>", "copy of the original")
		for _, tgt := range targets {
			out.Add(shared.DryRunActionCreate, "secret://"+tgt.Key, "")
		}
		out.Add(shared.DryRunActionModify, path,
			fmt.Sprintf("rewrite %d credential(s) as secret:// references", len(targets)))
		cmd.Println(out.String())
		return nil
	}

	if !opts.yes {
		if shared.IsNonInteractive() {
			return shared.NewMissingInputNonInteractiveError(
				"secrets migrate requires --yes when running non-interactively", nil)
		}
		confirmed, err := prompt.NewSurveyPrompter(true).PromptConfirm(ctx, "Proceed with migration?", false)
		if err != nil {
			return shared.NewMissingInputError("confirmation failed", err)
		}
		if !confirmed {
			cmd.Println("aborted")
			return nil
		}
	}

	backupPath := path + ".backup." + time.Now().Format("20060102-150405")
	if err := os.WriteFile(backupPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}

	resolver := secrets.DefaultChain()
	for _, tgt := range targets {
		if err := resolver.Set(ctx, tgt.Key, tgt.Value, opts.backend); err != nil {
			return fmt.Errorf("failed to store secret %q: %w", tgt.Key, err)
		}
	}

	updated, err := rewriteCredentialRefs(data, targets)
	if err != nil {
		return fmt.Errorf("failed to rewrite %s: %w", path, err)
	}
	if err := os.WriteFile(path, updated, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	cmd.Println(shared.RenderOK(fmt.Sprintf("migrated %d credential(s)", len(targets))))
	cmd.Printf("updated: %s\n", path)
	cmd.Printf("backup:  %s\n", backupPath)
	return nil
}

// scanPlaintextCredentials finds literal credential values, in probe
// declaration order. References (${VAR}, secret://) are already indirect
// and are skipped.
func scanPlaintextCredentials(file *config.ProbeFile) []migrationTarget {
	var targets []migrationTarget

	for _, p := range file.Probes {
		for _, cred := range []struct{ field, value string }{
			{"token", p.Auth.Token},
			{"password", p.Auth.Password},
			{"client_secret", p.Auth.ClientSecret},
		} {
			if !isPlaintextCredential(cred.value) {
				continue
			}
			targets = append(targets, migrationTarget{
				Probe: p.Name,
				Field: cred.field,
				Key:   secretKeyFor(p.Name, cred.field),
				Value: cred.value,
			})
		}
	}

	return targets
}

func isPlaintextCredential(value string) bool {
	if value == "" {
		return false
	}
	if strings.HasPrefix(value, "secret://") {
		return false
	}
	// ${VAR} environment references resolve at run time.
	return !strings.Contains(value, "${")
}

// secretKeyFor builds a storage key from a probe name and credential
// field, normalized to the secret key grammar.
func secretKeyFor(probeName, field string) string {
	name := normalizeKeySegment(probeName)
	if name == "" {
		name = "probe"
	}
	return name + "/" + strings.ReplaceAll(field, "_", "-")
}

func normalizeKeySegment(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingSep = false
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// rewriteCredentialRefs replaces migrated values with secret://
// references. The file is edited as a generic YAML document so unknown
// future fields survive, at the cost of normalized formatting; the
// backup keeps the original.
func rewriteCredentialRefs(data []byte, targets []migrationTarget) ([]byte, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	byProbe := make(map[string][]migrationTarget)
	for _, tgt := range targets {
		byProbe[tgt.Probe] = append(byProbe[tgt.Probe], tgt)
	}

	probes, ok := raw["probes"].([]any)
	if !ok {
		return nil, fmt.Errorf("probes section missing")
	}

	for _, entry := range probes {
		pm, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		name, _ := pm["name"].(string)
		probeTargets := byProbe[name]
		if len(probeTargets) == 0 {
			continue
		}
		auth, ok := pm["auth"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("probe %q has no auth section", name)
		}
		for _, tgt := range probeTargets {
			auth[tgt.Field] = "secret://" + tgt.Key
		}
	}

	return yaml.Marshal(raw)
}
