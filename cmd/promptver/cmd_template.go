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

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/teradata-labs/promptver/pkg/lifecycle"
	"github.com/teradata-labs/promptver/pkg/prompts"
)

func newTemplateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"templates", "tpl"},
		Short:   "Manage prompt templates",
	}
	cmd.AddCommand(
		newTemplateCreateCmd(c),
		newTemplateGetCmd(c),
		newTemplateListCmd(c),
		newTemplateDeleteCmd(c),
		newTemplateExportCmd(c),
	)
	return cmd
}

func newTemplateCreateCmd(c *cli) *cobra.Command {
	var name, description string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withRuntime(cmd, func(rt *runtime) error {
				t, err := rt.engine.CreateTemplate(cmd.Context(), lifecycle.TemplateRequest{
					Name:        name,
					Description: description,
				})
				if err != nil {
					return err
				}
				return c.print(t)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "template name")
	cmd.Flags().StringVar(&description, "description", "", "template description")
	return cmd
}

func newTemplateGetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get <template-id>",
		Short: "Show a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRuntime(cmd, func(rt *runtime) error {
				t, err := rt.engine.Template(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return c.print(t)
			})
		},
	}
}

func newTemplateListCmd(c *cli) *cobra.Command {
	var match string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withRuntime(cmd, func(rt *runtime) error {
				ts, err := rt.engine.Templates(cmd.Context())
				if err != nil {
					return err
				}
				return c.print(matchTemplates(ts, match))
			})
		},
	}
	cmd.Flags().StringVar(&match, "match", "", "fuzzy filter on name and description, best match first")
	return cmd
}

func matchTemplates(ts []*prompts.Template, query string) []*prompts.Template {
	if query == "" {
		return ts
	}
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.Name + " " + t.Description
	}
	matches := fuzzy.Find(query, names)
	out := make([]*prompts.Template, 0, len(matches))
	for _, m := range matches {
		out = append(out, ts[m.Index])
	}
	return out
}

func newTemplateDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <template-id>",
		Short: "Delete a template and its versions; audit entries are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRuntime(cmd, func(rt *runtime) error {
				removed, err := rt.engine.DeleteTemplate(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(c.out, "Deleted template %s and %d version(s)\n", args[0], removed)
				return err
			})
		},
	}
}
