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

package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func newTestRootCommand() *cobra.Command {
	rootCmd := NewRootCommand()

	checkCmd := &cobra.Command{
		Use:   "check <url>",
		Short: "Probe a single URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
	}
	checkCmd.Flags().Duration("timeout", 0, "Request timeout")
	rootCmd.AddCommand(checkCmd)

	runCmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Run the probes in a probe file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
	}
	rootCmd.AddCommand(runCmd)

	return rootCmd
}

func TestNewHelpCommand(t *testing.T) {
	rootCmd := newTestRootCommand()
	helpCmd := NewHelpCommand(rootCmd)

	if helpCmd.Use != "help [command]" {
		t.Errorf("expected use 'help [command]', got %q", helpCmd.Use)
	}

	if helpCmd.Flags().Lookup("json") == nil {
		t.Error("json flag not registered on help command")
	}
}

func TestHelpCommandAllJSON(t *testing.T) {
	rootCmd := newTestRootCommand()
	helpCmd := NewHelpCommand(rootCmd)
	rootCmd.AddCommand(helpCmd)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"help", "--json"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	var resp HelpResponse
	if err := json.Unmarshal(buf.Bytes(), &resp); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput: %s", err, buf.String())
	}

	if resp.Command != nil {
		t.Error("expected no single command in all-commands output")
	}
	if len(resp.Commands) == 0 {
		t.Fatal("expected commands to be listed")
	}

	names := make(map[string]bool)
	for _, c := range resp.Commands {
		names[c.Name] = true
	}
	if !names["check"] {
		t.Error("expected 'check' in command list")
	}
	if !names["run"] {
		t.Error("expected 'run' in command list")
	}

	if !strings.Contains(resp.DocsURL, "probekit.github.io/preflight") {
		t.Errorf("unexpected docs URL %q", resp.DocsURL)
	}
}

func TestHelpCommandGlobalFlagsJSON(t *testing.T) {
	rootCmd := newTestRootCommand()
	helpCmd := NewHelpCommand(rootCmd)
	rootCmd.AddCommand(helpCmd)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"help", "--json"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	var resp HelpResponse
	if err := json.Unmarshal(buf.Bytes(), &resp); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	flagNames := make(map[string]bool)
	for _, f := range resp.GlobalFlags {
		flagNames[f.Name] = true
	}
	for _, want := range []string{"verbose", "quiet", "json", "no-color", "config"} {
		if !flagNames[want] {
			t.Errorf("expected global flag %q in help output", want)
		}
	}
}

func TestHelpCommandSpecificJSON(t *testing.T) {
	rootCmd := newTestRootCommand()
	helpCmd := NewHelpCommand(rootCmd)
	rootCmd.AddCommand(helpCmd)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"help", "check", "--json"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	var resp HelpResponse
	if err := json.Unmarshal(buf.Bytes(), &resp); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput: %s", err, buf.String())
	}

	if resp.Command == nil {
		t.Fatal("expected single command metadata")
	}
	if resp.Command.Name != "check" {
		t.Errorf("expected command 'check', got %q", resp.Command.Name)
	}

	foundTimeout := false
	for _, f := range resp.Command.Flags {
		if f.Name == "timeout" {
			foundTimeout = true
		}
	}
	if !foundTimeout {
		t.Error("expected 'timeout' flag in check command metadata")
	}
}

func TestHelpCommandNotFound(t *testing.T) {
	rootCmd := newTestRootCommand()
	helpCmd := NewHelpCommand(rootCmd)
	rootCmd.AddCommand(helpCmd)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"help", "nosuchcommand"})

	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected 'not found' error, got %q", err.Error())
	}
}

func TestExtractCommandMetadata(t *testing.T) {
	cmd := &cobra.Command{
		Use:     "history",
		Short:   "Inspect past probe results",
		Aliases: []string{"hist"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum number of entries")
	cmd.Flags().String("probe", "", "Probe name to filter by")
	if err := cmd.MarkFlagRequired("probe"); err != nil {
		t.Fatalf("mark flag required: %v", err)
	}
	cmd.AddCommand(&cobra.Command{Use: "clear", Short: "Clear history"})
	cmd.AddCommand(&cobra.Command{Use: "internal", Hidden: true})

	metadata := extractCommandMetadata(cmd)

	if metadata.Name != "history" {
		t.Errorf("expected name 'history', got %q", metadata.Name)
	}
	if len(metadata.Aliases) != 1 || metadata.Aliases[0] != "hist" {
		t.Errorf("expected aliases ['hist'], got %v", metadata.Aliases)
	}

	byName := make(map[string]FlagMetadata)
	for _, f := range metadata.Flags {
		byName[f.Name] = f
	}
	limit, ok := byName["limit"]
	if !ok {
		t.Fatal("expected 'limit' flag in metadata")
	}
	if limit.Default != "20" {
		t.Errorf("expected default '20', got %q", limit.Default)
	}
	if limit.Required {
		t.Error("'limit' flag should not be marked required")
	}
	if probe, ok := byName["probe"]; !ok || !probe.Required {
		t.Error("'probe' flag should be marked required")
	}

	if len(metadata.Subcommands) != 1 || metadata.Subcommands[0] != "clear" {
		t.Errorf("expected visible subcommands ['clear'], got %v", metadata.Subcommands)
	}
}
