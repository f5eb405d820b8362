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

	"github.com/spf13/cobra"

	"github.com/teradata-labs/promptver/pkg/storage/backend"
)

func newMigrateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Inspect and manage the database schema",
		Long:  `The schema is migrated to the latest version whenever storage is opened; these commands report on it and roll it back.`,
	}
	cmd.AddCommand(newMigrateStatusCmd(c), newMigrateDownCmd(c))
	return cmd
}

type migrationStatus struct {
	Backend        string                      `json:"backend" yaml:"backend"`
	CurrentVersion int                         `json:"current_version" yaml:"current_version"`
	Pending        []*backend.PendingMigration `json:"pending" yaml:"pending"`
}

func newMigrateStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withRuntime(cmd, func(rt *runtime) error {
				inspector, err := migrationInspector(rt)
				if err != nil {
					return err
				}
				current, err := inspector.CurrentVersion(cmd.Context())
				if err != nil {
					return err
				}
				pending, err := inspector.PendingMigrations(cmd.Context())
				if err != nil {
					return err
				}
				return c.print(migrationStatus{Backend: rt.store.Name(), CurrentVersion: current, Pending: pending})
			})
		},
	}
}

func newMigrateDownCmd(c *cli) *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			return c.withRuntime(cmd, func(rt *runtime) error {
				inspector, err := migrationInspector(rt)
				if err != nil {
					return err
				}
				if err := inspector.MigrateDown(cmd.Context(), steps); err != nil {
					return err
				}
				current, err := inspector.CurrentVersion(cmd.Context())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(c.out, "Schema now at version %d\n", current)
				return err
			})
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	return cmd
}

func migrationInspector(rt *runtime) (backend.MigrationInspector, error) {
	inspector, ok := rt.store.(backend.MigrationInspector)
	if !ok {
		return nil, fmt.Errorf("%s storage has no schema migrations", rt.store.Name())
	}
	return inspector, nil
}

func newBackupCmd(c *cli) *cobra.Command {
	var compress bool
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a verified copy of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withRuntime(cmd, func(rt *runtime) error {
				backuper, ok := rt.store.(backend.Backuper)
				if !ok {
					return fmt.Errorf("%s storage does not support backups", rt.store.Name())
				}
				path, err := backuper.Backup(cmd.Context())
				if err != nil {
					return err
				}
				if compress {
					if path, err = backend.CompressBackup(path); err != nil {
						return err
					}
				}
				_, err = fmt.Fprintf(c.out, "Backup written to %s\n", path)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&compress, "compress", false, "zstd-compress the backup")
	return cmd
}
