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
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/teradata-labs/promptver/pkg/lifecycle"
	"github.com/teradata-labs/promptver/pkg/prompts"
)

// Sheet names of a template export.
const (
	versionsSheet = "Versions"
	auditSheet    = "Audit"
)

func newTemplateExportCmd(c *cli) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "export <template-id>",
		Short: "Write a template's versions and audit trail to an .xlsx workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRuntime(cmd, func(rt *runtime) error {
				if err := exportTemplate(cmd.Context(), rt.engine, args[0], path); err != nil {
					return err
				}
				_, err := fmt.Fprintf(c.out, "Exported template %s to %s\n", args[0], path)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&path, "xlsx", "", "workbook to write (required)")
	_ = cmd.MarkFlagRequired("xlsx")
	return cmd
}

// exportTemplate writes one row per version, creation ascending, and one
// row per audit entry, newest first within each version.
func exportTemplate(ctx context.Context, engine *lifecycle.Engine, templateID, path string) error {
	versions, err := engine.History(ctx, templateID)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", versionsSheet); err != nil {
		return fmt.Errorf("failed to create %s sheet: %w", versionsSheet, err)
	}
	if _, err := f.NewSheet(auditSheet); err != nil {
		return fmt.Errorf("failed to create %s sheet: %w", auditSheet, err)
	}

	rows := [][]any{{"ID", "Number", "Status", "Parent", "Created By", "Created At", "Parameters", "Content"}}
	for _, v := range versions {
		rows = append(rows, []any{
			v.ID, v.Number, string(v.Status), v.ParentID, v.CreatedBy,
			v.CreatedAt.UTC().Format(time.RFC3339), len(v.Parameters), v.Content,
		})
	}
	if err := writeRows(f, versionsSheet, rows); err != nil {
		return err
	}

	rows = [][]any{{"Version", "Action", "Performed By", "Performed At", "Previous Status", "New Status", "Reference", "Details"}}
	for _, v := range versions {
		entries, err := engine.AuditTrail(ctx, v.ID)
		if err != nil {
			return err
		}
		for _, e := range entries {
			rows = append(rows, auditRow(v, e))
		}
	}
	if err := writeRows(f, auditSheet, rows); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func auditRow(v *prompts.Version, e *prompts.AuditEntry) []any {
	return []any{
		v.Number, string(e.Action), e.PerformedBy, e.PerformedAt.UTC().Format(time.RFC3339),
		string(e.PreviousStatus), string(e.NewStatus), e.ReferenceVersionID, e.Details,
	}
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
