// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/alecthomas/chroma/v2/quick"
	"github.com/spf13/cobra"

	"github.com/teradata-labs/promptver/pkg/diff"
	"github.com/teradata-labs/promptver/pkg/lifecycle"
	"github.com/teradata-labs/promptver/pkg/prompts"
)

func newVersionCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"versions", "v"},
		Short:   "Manage prompt versions",
	}
	cmd.AddCommand(
		newVersionCreateCmd(c),
		newVersionGetCmd(c),
		newVersionListCmd(c),
		newVersionHistoryCmd(c),
		newVersionPublishedCmd(c),
		newVersionNextCmd(c),
		newVersionBranchCmd(c),
		newVersionTransitionCmd(c),
		newVersionCanTransitionCmd(c),
		newVersionRollbackCmd(c),
		newVersionCompareCmd(c),
		newVersionLineageCmd(c),
		newVersionAuditCmd(c),
		newVersionValidateCmd(c),
		newVersionRenderCmd(c),
		newVersionTokensCmd(c),
	)
	return cmd
}

// contentFlags are shared by create and branch.
type contentFlags struct {
	content      string
	contentFile  string
	systemPrompt string
	paramsFile   string
}

func (f *contentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.content, "content", "", "prompt content")
	cmd.Flags().StringVar(&f.contentFile, "content-file", "", "read prompt content from a file")
	cmd.Flags().StringVar(&f.systemPrompt, "system-prompt", "", "system prompt")
	cmd.Flags().StringVar(&f.paramsFile, "params-file", "", "YAML or JSON list of parameters")
	cmd.MarkFlagsMutuallyExclusive("content", "content-file")
}

func newVersionCreateCmd(c *cli) *cobra.Command {
	var (
		templateID, number, parent string
		content                    contentFlags
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a DRAFT version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, err := readText(content.content, content.contentFile)
			if err != nil {
				return err
			}
			var params []prompts.Parameter
			if content.paramsFile != "" {
				if params, err = readParameters(content.paramsFile); err != nil {
					return err
				}
			}
			return c.withRuntime(cmd, func(rt *runtime) error {
				if number == "" {
					if number, err = rt.engine.NextVersionNumber(cmd.Context(), templateID); err != nil {
						return err
					}
				}
				v, err := rt.engine.Create(cmd.Context(), lifecycle.CreateRequest{
					TemplateID:      templateID,
					VersionNumber:   number,
					Content:         text,
					SystemPrompt:    content.systemPrompt,
					Parameters:      params,
					ParentVersionID: parent,
				})
				if err != nil {
					return err
				}
				return c.print(v)
			})
		},
	}
	cmd.Flags().StringVar(&templateID, "template", "", "template id")
	cmd.Flags().StringVar(&number, "number", "", "version number (default: next minor version)")
	cmd.Flags().StringVar(&parent, "parent", "", "parent version id")
	content.register(cmd)
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func newVersionGetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get <version-id>",
		Short: "Show a version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRuntime(cmd, func(rt *runtime) error {
				v, err := rt.engine.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return c.print(v)
			})
		},
	}
}

func newVersionTokensCmd(c *cli) *cobra.Command {
	var estimate bool
	cmd := &cobra.Command{
		Use:   "tokens <version-id>",
		Short: "Count the tokens of a version's content and system prompt",
		Long: heredoc.Doc(`
			Count the tokens of a version's content and system prompt with the
			cl100k_base encoding. When the encoding cannot be loaded, or with
			--estimate, counts are estimated at four characters per token.
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRuntime(cmd, func(rt *runtime) error {
				v, err := rt.engine.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				counter := &prompts.TokenCounter{}
				if !estimate {
					counter = prompts.GetTokenCounter()
				}
				return c.print(counter.Usage(v))
			})
		},
	}
	cmd.Flags().BoolVar(&estimate, "estimate", false, "skip the encoder and estimate")
	return cmd
}

func newVersionListCmd(c *cli) *cobra.Command {
	var (
		templateID, status string
		page               prompts.Page
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the versions of a template in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withRuntime(cmd, func(rt *runtime) error {
				var (
					vs  []*prompts.Version
					err error
				)
				if status != "" {
					s, perr := parseStatus(status)
					if perr != nil {
						return perr
					}
					vs, err = rt.store.Versions().ListByTemplateAndStatus(cmd.Context(), templateID, s, page)
				} else {
					vs, err = rt.engine.Versions(cmd.Context(), templateID, page)
				}
				if err != nil {
					return err
				}
				return c.print(vs)
			})
		},
	}
	cmd.Flags().StringVar(&templateID, "template", "", "template id")
	cmd.Flags().StringVar(&status, "status", "", "only versions with this status")
	cmd.Flags().IntVar(&page.Offset, "offset", 0, "skip this many versions")
	cmd.Flags().IntVar(&page.Limit, "limit", 0, "return at most this many versions (0: all)")
	cmd.Flags().BoolVar(&page.Descending, "desc", false, "newest first")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func newVersionHistoryCmd(c *cli) *cobra.Command {
	var templateID string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the versions of a template, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withRuntime(cmd, func(rt *runtime) error {
				vs, err := rt.engine.History(cmd.Context(), templateID)
				if err != nil {
					return err
				}
				return c.print(vs)
			})
		},
	}
	cmd.Flags().StringVar(&templateID, "template", "", "template id")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func newVersionPublishedCmd(c *cli) *cobra.Command {
	var templateID string
	cmd := &cobra.Command{
		Use:   "published",
		Short: "Show the published version of a template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withRuntime(cmd, func(rt *runtime) error {
				v, err := rt.engine.PublishedVersion(cmd.Context(), templateID)
				if err != nil {
					return err
				}
				return c.print(v)
			})
		},
	}
	cmd.Flags().StringVar(&templateID, "template", "", "template id")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func newVersionNextCmd(c *cli) *cobra.Command {
	var templateID string
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Print the next version number of a template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withRuntime(cmd, func(rt *runtime) error {
				next, err := rt.engine.NextVersionNumber(cmd.Context(), templateID)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(c.out, next)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&templateID, "template", "", "template id")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func newVersionBranchCmd(c *cli) *cobra.Command {
	var (
		number  string
		content contentFlags
	)
	cmd := &cobra.Command{
		Use:   "branch <source-version-id>",
		Short: "Create a DRAFT version derived from another version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := lifecycle.BranchRequest{VersionNumber: number}
			flags := cmd.Flags()
			if flags.Changed("content") || flags.Changed("content-file") {
				text, err := readText(content.content, content.contentFile)
				if err != nil {
					return err
				}
				req.Content = &text
			}
			if flags.Changed("system-prompt") {
				req.SystemPrompt = &content.systemPrompt
			}
			if content.paramsFile != "" {
				params, err := readParameters(content.paramsFile)
				if err != nil {
					return err
				}
				req.Parameters = params
			}
			return c.withRuntime(cmd, func(rt *runtime) error {
				v, err := rt.engine.CreateBranch(cmd.Context(), args[0], req)
				if err != nil {
					return err
				}
				return c.print(v)
			})
		},
	}
	cmd.Flags().StringVar(&number, "number", "", "version number of the branch")
	content.register(cmd)
	_ = cmd.MarkFlagRequired("number")
	return cmd
}

func newVersionTransitionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "transition <version-id> <status>",
		Short: "Move a version to a new status",
		Long: heredoc.Doc(`
			Move a version to a new status. Allowed moves:

			  DRAFT -> REVIEW
			  REVIEW -> APPROVED | PUBLISHED
			  APPROVED -> PUBLISHED
			  PUBLISHED -> DEPRECATED
			  DEPRECATED -> ARCHIVED

			Publishing a version deprecates the template's previously published version.
		`),
		Example: heredoc.Doc(`
			promptver version transition 6f1c... REVIEW
			promptver version transition 6f1c... PUBLISHED -o json
		`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := parseStatus(args[1])
			if err != nil {
				return err
			}
			return c.withRuntime(cmd, func(rt *runtime) error {
				v, err := rt.engine.Transition(cmd.Context(), args[0], status)
				if err != nil {
					return err
				}
				return c.print(v)
			})
		},
	}
}

func newVersionCanTransitionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "can-transition <version-id> <status>",
		Short: "Report whether a version may move to a status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := parseStatus(args[1])
			if err != nil {
				return err
			}
			return c.withRuntime(cmd, func(rt *runtime) error {
				ok, err := rt.engine.CanTransitionTo(cmd.Context(), args[0], status)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(c.out, ok)
				return err
			})
		},
	}
}

func newVersionRollbackCmd(c *cli) *cobra.Command {
	var inPlace bool
	cmd := &cobra.Command{
		Use:   "rollback <source-version-id>",
		Short: "Restore the content of an earlier version",
		Long: heredoc.Doc(`
			Restore the content of an earlier version.

			By default a new DRAFT version is created from the source, keeping
			history intact. With --in-place the template's current version is
			overwritten with the source's content and parameters. It becomes
			PUBLISHED when the source is published and DRAFT otherwise.
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRuntime(cmd, func(rt *runtime) error {
				v, err := rt.engine.Rollback(cmd.Context(), args[0], !inPlace)
				if err != nil {
					return err
				}
				return c.print(v)
			})
		},
	}
	cmd.Flags().BoolVar(&inPlace, "in-place", false, "overwrite the current version instead of creating a new one")
	return cmd
}

func newVersionCompareCmd(c *cli) *cobra.Command {
	var (
		unified bool
		color   bool
	)
	cmd := &cobra.Command{
		Use:   "compare <version-id> <other-version-id>",
		Short: "Diff two versions of the same template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRuntime(cmd, func(rt *runtime) error {
				res, err := rt.engine.Compare(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				if unified {
					text := diff.Unified(res.ContentDiffs, res.VersionNumber1, res.VersionNumber2)
					if color {
						return quick.Highlight(c.out, text, "diff", "terminal256", "monokai")
					}
					_, err = fmt.Fprint(c.out, text)
					return err
				}
				return c.print(res)
			})
		},
	}
	cmd.Flags().BoolVar(&unified, "unified", false, "print a readable content diff")
	cmd.Flags().BoolVar(&color, "color", false, "highlight the --unified diff for a terminal")
	return cmd
}

func newVersionLineageCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "lineage <version-id>",
		Short: "List a version and its ancestors, nearest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRuntime(cmd, func(rt *runtime) error {
				chain, err := rt.engine.Lineage(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return c.print(chain)
			})
		},
	}
}

func newVersionAuditCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "audit <version-id>",
		Short: "Show the audit trail of a version, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRuntime(cmd, func(rt *runtime) error {
				entries, err := rt.engine.AuditTrail(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return c.print(entries)
			})
		},
	}
}

func newVersionValidateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-number <text>",
		Short: "Check that text is a major.minor.patch version number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRuntime(cmd, func(rt *runtime) error {
				v, err := rt.engine.ParseVersionNumber(args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(c.out, v.String())
				return err
			})
		},
	}
}

func newVersionRenderCmd(c *cli) *cobra.Command {
	var vars map[string]string
	cmd := &cobra.Command{
		Use:   "render <version-id>",
		Short: "Print the content of a version with parameter values filled in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRuntime(cmd, func(rt *runtime) error {
				out, err := rt.engine.Render(cmd.Context(), args[0], vars)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(c.out, out)
				return err
			})
		},
	}
	cmd.Flags().StringToStringVar(&vars, "var", nil, "parameter value as name=value (repeatable)")
	return cmd
}
