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

// Package secrets implements the secrets command group: credential
// storage for secret:// references in probe files and flags.
package secrets

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/probekit/preflight/internal/cli/prompt"
	"github.com/probekit/preflight/internal/commands/completion"
	"github.com/probekit/preflight/internal/commands/shared"
	"github.com/probekit/preflight/internal/secrets"
)

// NewCommand creates the secrets command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage probe credentials",
		Long: `Manage the credentials that secret:// references resolve to.

Secrets live in a tiered backend chain, queried highest priority first:
  1. Environment variables PREFLIGHT_SECRET_<KEY> (read-only)
  2. System keychain (macOS Keychain, Linux Secret Service, Windows
     Credential Manager)
  3. Encrypted file, for headless machines (requires PREFLIGHT_MASTER_KEY
     or a master.key next to the config file)

Keys are lowercase with - _ . / separators, e.g. payments/api-token.

Examples:
  preflight secrets set github-token
  preflight secrets get github-token
  preflight secrets list
  preflight secrets delete github-token
  preflight secrets migrate probes.yaml`,
	}

	cmd.AddCommand(newSetCommand())
	cmd.AddCommand(newGetCommand())
	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newDeleteCommand())
	cmd.AddCommand(newMigrateCommand())

	return cmd
}

func newSetCommand() *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "set <key> [value]",
		Short: "Store a secret",
		Long: `Store a secret under a key.

The value comes from the second argument, from piped standard input, or
from a hidden interactive prompt, in that order. Prefer the pipe or the
prompt: an argument lands in shell history.

Examples:
  preflight secrets set github-token
  pass show github | preflight secrets set github-token
  preflight secrets set ci-token "$TOKEN" --backend file`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(cmd, args, backend)
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "target backend (keychain, file)")
	_ = cmd.RegisterFlagCompletionFunc("backend", completion.CompleteSecretsBackend)

	return cmd
}

func newGetCommand() *cobra.Command {
	var unmask bool

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Retrieve a secret",
		Long: `Retrieve a secret from the backend chain.

The value is masked unless --unmask is given.

Examples:
  preflight secrets get github-token
  preflight secrets get github-token --unmask`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, args[0], unmask)
		},
	}

	cmd.Flags().BoolVar(&unmask, "unmask", false, "print the full value")

	return cmd
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List secret keys",
		Long: `List every secret key across the backend chain.

Shows the key, the backend that would resolve it, and whether that
backend is read-only. Values are never shown.`,
		Args: cobra.NoArgs,
		RunE: runList,
	}
}

func newDeleteCommand() *cobra.Command {
	var (
		backend string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "delete <key>",
		Short: "Remove a secret",
		Long: `Remove a secret from writable backends.

Asks for confirmation unless --force is given. Environment-variable
secrets cannot be deleted here; unset the variable instead.

Examples:
  preflight secrets delete github-token
  preflight secrets delete github-token --backend file --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, args[0], backend, force)
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "target backend (keychain, file)")
	cmd.Flags().BoolVar(&force, "force", false, "skip the confirmation prompt")
	_ = cmd.RegisterFlagCompletionFunc("backend", completion.CompleteSecretsBackend)

	return cmd
}

func runSet(cmd *cobra.Command, args []string, backend string) error {
	ctx := cmd.Context()
	key := args[0]

	if err := secrets.ValidateKey(key); err != nil {
		return shared.NewInvalidConfigError(err.Error(), err)
	}

	var (
		value string
		err   error
	)
	if len(args) == 2 {
		value = args[1]
	} else {
		value, err = readSecretValue()
		if err != nil {
			return err
		}
	}
	if value == "" {
		return shared.NewInvalidConfigError("secret value must not be empty", nil)
	}

	resolver := secrets.DefaultChain()
	if err := resolver.Set(ctx, key, value, backend); err != nil {
		if errors.Is(err, secrets.ErrBackendUnavailable) {
			return fmt.Errorf("%w\n\nno writable backend is reachable; export %s instead, or set PREFLIGHT_MASTER_KEY to enable the encrypted file backend",
				err, envVarName(key))
		}
		return fmt.Errorf("store %q: %w", key, err)
	}

	cmd.Println(shared.RenderOK(fmt.Sprintf("stored %q in the %s backend", key, backendUsed(resolver, backend))))
	return nil
}

func runGet(cmd *cobra.Command, key string, unmask bool) error {
	ctx := cmd.Context()

	if err := secrets.ValidateKey(key); err != nil {
		return shared.NewInvalidConfigError(err.Error(), err)
	}

	value, err := secrets.DefaultChain().Get(ctx, key)
	if err != nil {
		if errors.Is(err, secrets.ErrSecretNotFound) {
			return fmt.Errorf("secret %q not found; store it with: preflight secrets set %s", key, key)
		}
		return fmt.Errorf("get %q: %w", key, err)
	}

	shown := value
	if !unmask {
		shown = maskSecret(value)
	}

	if shared.GetJSON() {
		cmd.Printf("{\n  \"key\": %q,\n  \"value\": %q,\n  \"masked\": %t\n}\n", key, shown, !unmask)
		return nil
	}

	if unmask {
		cmd.Println(value)
		return nil
	}
	cmd.Printf("%s %s\n", shown, shared.Muted.Render("(--unmask shows the full value)"))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	metadata, err := secrets.DefaultChain().List(ctx)
	if err != nil {
		return fmt.Errorf("list secrets: %w", err)
	}

	if shared.GetJSON() {
		return shared.EmitJSONTo(cmd, metadata)
	}

	if len(metadata) == 0 {
		cmd.Println("no secrets stored")
		return nil
	}

	cmd.Printf("%-40s %-10s %s\n", "KEY", "BACKEND", "READ-ONLY")
	for _, meta := range metadata {
		readOnly := "no"
		if meta.ReadOnly {
			readOnly = "yes"
		}
		cmd.Printf("%-40s %-10s %s\n", meta.Key, meta.Backend, readOnly)
	}
	return nil
}

func runDelete(cmd *cobra.Command, key, backend string, force bool) error {
	ctx := cmd.Context()

	if err := secrets.ValidateKey(key); err != nil {
		return shared.NewInvalidConfigError(err.Error(), err)
	}

	if !force {
		if shared.IsNonInteractive() {
			return shared.NewMissingInputNonInteractiveError(
				"secrets delete requires --force when running non-interactively", nil)
		}
		confirmed, err := prompt.NewSurveyPrompter(true).PromptConfirm(ctx,
			fmt.Sprintf("Delete secret %q?", key), false)
		if err != nil {
			return shared.NewMissingInputError("confirmation failed", err)
		}
		if !confirmed {
			cmd.Println("aborted")
			return nil
		}
	}

	if err := secrets.DefaultChain().Delete(ctx, key, backend); err != nil {
		switch {
		case errors.Is(err, secrets.ErrSecretNotFound):
			return fmt.Errorf("secret %q not found", key)
		case errors.Is(err, secrets.ErrReadOnlyBackend):
			return shared.NewInvalidConfigError(
				fmt.Sprintf("cannot delete from a read-only backend; unset %s instead", envVarName(key)), nil)
		default:
			return fmt.Errorf("delete %q: %w", key, err)
		}
	}

	cmd.Println(shared.RenderOK(fmt.Sprintf("deleted %q", key)))
	return nil
}

// readSecretValue reads the value from piped stdin, or prompts with
// hidden input when the session is interactive.
func readSecretValue() (string, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return "", err
	}

	if (stat.Mode() & os.ModeCharDevice) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}

	if shared.IsNonInteractive() {
		return "", shared.NewMissingInputNonInteractiveError(
			"a secret value is required: pass it as an argument or pipe it on stdin", nil)
	}

	var value string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Secret value").
			Description("Input is hidden and never echoed").
			EchoMode(huh.EchoModePassword).
			Value(&value),
	))
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			os.Exit(130)
		}
		return "", err
	}
	return value, nil
}

// backendUsed reports which backend a Set with the given flag value wrote
// to: the named one, or the first writable in the chain.
func backendUsed(resolver *secrets.Resolver, named string) string {
	if named != "" {
		return named
	}
	for _, b := range resolver.Backends() {
		if ro, ok := b.(secrets.ReadOnlyBackend); ok && ro.ReadOnly() {
			continue
		}
		return b.Name()
	}
	return "unknown"
}

// maskSecret hides most of a value: short values entirely, longer ones
// down to the first and last four characters.
func maskSecret(value string) string {
	const edge = 4
	if len(value) <= 2*edge {
		return "****"
	}
	return value[:edge] + "..." + value[len(value)-edge:]
}

// envVarName returns the environment variable the env backend would read
// for a key.
func envVarName(key string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - ('a' - 'A')
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, key)
	return "PREFLIGHT_SECRET_" + mapped
}
