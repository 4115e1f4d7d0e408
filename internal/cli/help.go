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
	"encoding/json"
	"fmt"
	"io"

	"github.com/probekit/preflight/internal/commands/shared"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const docsBaseURL = "https://probekit.github.io/preflight"

// CommandMetadata describes one command for machine consumers of
// `preflight help --json`: scripts, completion tooling, agents.
type CommandMetadata struct {
	Name        string         `json:"name"`
	Short       string         `json:"short"`
	Long        string         `json:"long,omitempty"`
	Usage       string         `json:"usage"`
	Aliases     []string       `json:"aliases,omitempty"`
	Flags       []FlagMetadata `json:"flags,omitempty"`
	Examples    string         `json:"examples,omitempty"`
	Subcommands []string       `json:"subcommands,omitempty"`
}

// FlagMetadata describes one flag.
type FlagMetadata struct {
	Name      string `json:"name"`
	Shorthand string `json:"shorthand,omitempty"`
	Usage     string `json:"usage"`
	Default   string `json:"default,omitempty"`
	Required  bool   `json:"required"`
}

// HelpResponse is the JSON document for the help command. Exactly one of
// Commands (the full listing) or Command (a single target) is set.
type HelpResponse struct {
	Commands    []CommandMetadata `json:"commands,omitempty"`
	Command     *CommandMetadata  `json:"command,omitempty"`
	GlobalFlags []FlagMetadata    `json:"global_flags,omitempty"`
	DocsURL     string            `json:"docs_url"`
}

// NewHelpCommand builds the help command. It replaces cobra's built-in so
// that --json can emit the same command metadata the docs are generated
// from.
func NewHelpCommand(root *cobra.Command) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "help [command]",
		Short: "Show help for any command",
		Long: `Help shows usage for preflight and its commands.

Run 'preflight help' for the command list, or 'preflight help <command>'
for details on one command. With --json the same command metadata the
docs are generated from is emitted for scripts and agents.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			machine := shared.GetJSON() || asJSON

			if len(args) == 0 {
				if machine {
					return writeHelpJSON(cmd.OutOrStdout(), helpListing(root))
				}
				return root.Help()
			}

			target, _, err := root.Find(args)
			if err != nil {
				return fmt.Errorf("command %q not found", args[0])
			}
			if machine {
				return writeHelpJSON(cmd.OutOrStdout(), helpForCommand(root, target))
			}
			return target.Help()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")

	return cmd
}

// newHelpResponse carries the fields every help document shares.
func newHelpResponse(root *cobra.Command) HelpResponse {
	return HelpResponse{
		GlobalFlags: collectFlags(root.PersistentFlags()),
		DocsURL:     docsBaseURL + "/cli/",
	}
}

// helpListing assembles the all-commands response.
func helpListing(root *cobra.Command) HelpResponse {
	resp := newHelpResponse(root)
	for _, child := range root.Commands() {
		if child.Hidden {
			continue
		}
		resp.Commands = append(resp.Commands, extractCommandMetadata(child))
	}
	return resp
}

// helpForCommand assembles the single-command response.
func helpForCommand(root, target *cobra.Command) HelpResponse {
	resp := newHelpResponse(root)
	md := extractCommandMetadata(target)
	resp.Command = &md
	return resp
}

func writeHelpJSON(out io.Writer, resp HelpResponse) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// extractCommandMetadata flattens one cobra command into its metadata:
// usage line, visible flags, and visible subcommands.
func extractCommandMetadata(cmd *cobra.Command) CommandMetadata {
	md := CommandMetadata{
		Name:     cmd.Name(),
		Short:    cmd.Short,
		Long:     cmd.Long,
		Usage:    cmd.UseLine(),
		Aliases:  cmd.Aliases,
		Examples: cmd.Example,
		Flags:    collectFlags(cmd.Flags()),
	}
	for _, sub := range cmd.Commands() {
		if sub.Hidden {
			continue
		}
		md.Subcommands = append(md.Subcommands, sub.Name())
	}
	return md
}

// collectFlags lists the visible flags of a flag set in definition order.
// Required is read from the annotation cobra sets in MarkFlagRequired.
func collectFlags(set *pflag.FlagSet) []FlagMetadata {
	var out []FlagMetadata
	set.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		_, required := f.Annotations[cobra.BashCompOneRequiredFlag]
		out = append(out, FlagMetadata{
			Name:      f.Name,
			Shorthand: f.Shorthand,
			Usage:     f.Usage,
			Default:   f.DefValue,
			Required:  required,
		})
	})
	return out
}
