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
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/teradata-labs/promptver/internal/version"
	"github.com/teradata-labs/promptver/pkg/config"
	"github.com/teradata-labs/promptver/pkg/lifecycle"
	"github.com/teradata-labs/promptver/pkg/observability"
	"github.com/teradata-labs/promptver/pkg/storage/backend"
)

// cli holds the state shared by every command of one invocation.
type cli struct {
	v       *viper.Viper
	cfgFile string
	output  string
	actor   string

	cfg    *config.Config
	out    io.Writer
	errOut io.Writer

	// openBackend opens the configured store. Tests replace it to share one
	// store across invocations.
	openBackend func(ctx context.Context, cfg backend.Config, tracer observability.Tracer, logger *zap.Logger) (backend.Backend, error)
}

func newCLI(out, errOut io.Writer) *cli {
	return &cli{
		v:           viper.New(),
		out:         out,
		errOut:      errOut,
		openBackend: backend.New,
	}
}

// Execute runs the root command
func Execute() {
	c := newCLI(os.Stdout, os.Stderr)
	if err := newRootCmd(c).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "promptver",
		Short:         "Prompt version lifecycle manager",
		Long:          `promptver stores versioned prompt templates and moves them through review, publication, deprecation and archival with a full audit trail.`,
		Version:       version.Get(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(c.v, c.cfgFile)
			if err != nil {
				return err
			}
			cfg.LoadSecrets()
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			c.cfg = cfg
			cmd.SetContext(lifecycle.WithActor(cmd.Context(), c.actor))
			return nil
		},
	}
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (default: $PROMPTVER_DATA_DIR/promptver.yaml)")
	flags.StringVarP(&c.output, "output", "o", "yaml", "output format (yaml, json)")
	flags.StringVar(&c.actor, "actor", defaultActor(), "user recorded in the audit trail")

	flags.String("backend", "", "storage backend (sqlite, postgres, memory)")
	flags.String("db", "", "SQLite database path")
	flags.String("postgres-dsn", "", "PostgreSQL connection string")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (text, json)")

	_ = c.v.BindPFlag("storage.backend", flags.Lookup("backend"))
	_ = c.v.BindPFlag("storage.sqlite.path", flags.Lookup("db"))
	_ = c.v.BindPFlag("storage.postgres.dsn", flags.Lookup("postgres-dsn"))
	_ = c.v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = c.v.BindPFlag("logging.format", flags.Lookup("log-format"))

	root.AddCommand(
		newTemplateCmd(c),
		newVersionCmd(c),
		newMigrateCmd(c),
		newBackupCmd(c),
		newConfigCmd(c),
	)
	return root
}

func defaultActor() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return lifecycle.SystemActor
}
