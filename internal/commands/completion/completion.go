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

// Package completion implements shell completion: the completion command
// that generates the scripts, plus the dynamic completion functions for
// probe file arguments and enum-valued flags.
package completion

import (
	"os"

	"github.com/spf13/cobra"
)

// NewCommand creates the completion command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Print a completion script for the requested shell. The script
completes subcommands, flags, and probe file arguments.

Bash:

  For the current session:

    source <(preflight completion bash)

  To install permanently, write the script into your completion
  directory, for example:

    preflight completion bash > ~/.local/share/bash-completion/completions/preflight

Zsh:

  Completion needs compinit; if your ~/.zshrc does not already run it:

    autoload -U compinit; compinit

  Install the script anywhere in your $fpath and open a new shell:

    preflight completion zsh > "${fpath[1]}/_preflight"

Fish:

  For the current session:

    preflight completion fish | source

  To install permanently:

    preflight completion fish > ~/.config/fish/completions/preflight.fish

PowerShell:

  For the current session:

    preflight completion powershell | Out-String | Invoke-Expression

  To install permanently, redirect the script to a .ps1 file and
  dot-source that file from your $PROFILE.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE:                  runCompletion,
	}

	return cmd
}

func runCompletion(cmd *cobra.Command, args []string) error {
	switch args[0] {
	case "bash":
		return cmd.Root().GenBashCompletion(os.Stdout)
	case "zsh":
		return cmd.Root().GenZshCompletion(os.Stdout)
	case "fish":
		return cmd.Root().GenFishCompletion(os.Stdout, true)
	case "powershell":
		return cmd.Root().GenPowerShellCompletion(os.Stdout)
	}
	return nil
}

// SafeCompletionWrapper runs fn and degrades any panic or nil result to an
// empty suggestion list. Completion executes inside the user's interactive
// shell, where an error or stack trace would corrupt the command line.
func SafeCompletionWrapper(fn func() ([]string, cobra.ShellCompDirective)) ([]string, cobra.ShellCompDirective) {
	suggestions, directive, ok := runCompleter(fn)
	if !ok || suggestions == nil {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}
	return suggestions, directive
}

// runCompleter isolates the panic recovery so the wrapper itself stays a
// plain value mapping. ok is false when fn panicked.
func runCompleter(fn func() ([]string, cobra.ShellCompDirective)) (suggestions []string, directive cobra.ShellCompDirective, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	suggestions, directive = fn()
	return suggestions, directive, true
}
