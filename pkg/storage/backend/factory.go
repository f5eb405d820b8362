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

package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/teradata-labs/promptver/pkg/observability"
	"github.com/teradata-labs/promptver/pkg/storage/memory"
	"github.com/teradata-labs/promptver/pkg/storage/postgres"
	"github.com/teradata-labs/promptver/pkg/storage/sqlite"
)

// New opens the backend cfg selects. An empty Backend means SQLite. SQL
// backends are migrated to the latest schema before New returns.
func New(ctx context.Context, cfg Config, tracer observability.Tracer, logger *zap.Logger) (Backend, error) {
	switch cfg.Backend {
	case TypeMemory:
		return memory.New(), nil

	case "", TypeSQLite:
		if cfg.SQLite.Path == "" {
			return nil, fmt.Errorf("sqlite backend requires a path")
		}
		s, err := sqlite.Open(ctx, sqlite.Config{
			Path:          cfg.SQLite.Path,
			EncryptionKey: cfg.SQLite.EncryptionKey,
			BusyTimeout:   cfg.SQLite.BusyTimeout,
		}, tracer, logger)
		if err != nil {
			return nil, err
		}
		return &sqliteBackend{Store: s}, nil

	case TypePostgres:
		s, err := postgres.Open(ctx, cfg.Postgres, tracer, logger)
		if err != nil {
			return nil, err
		}
		return &postgresBackend{Store: s}, nil

	default:
		return nil, fmt.Errorf("unsupported storage backend: %q", cfg.Backend)
	}
}

// sqliteBackend adds MigrationInspector to sqlite.Store.
type sqliteBackend struct {
	*sqlite.Store
}

func (b *sqliteBackend) CurrentVersion(ctx context.Context) (int, error) {
	return b.Migrator().CurrentVersion(ctx)
}

func (b *sqliteBackend) PendingMigrations(ctx context.Context) ([]*PendingMigration, error) {
	raw, err := b.Migrator().PendingMigrations(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*PendingMigration, len(raw))
	for i, m := range raw {
		out[i] = &PendingMigration{Version: m.Version, Description: m.Description, SQL: m.UpSQL}
	}
	return out, nil
}

func (b *sqliteBackend) MigrateDown(ctx context.Context, steps int) error {
	return b.Migrator().MigrateDown(ctx, steps)
}

// postgresBackend adds MigrationInspector to postgres.Store.
type postgresBackend struct {
	*postgres.Store
}

func (b *postgresBackend) CurrentVersion(ctx context.Context) (int, error) {
	return b.Migrator().CurrentVersion(ctx)
}

func (b *postgresBackend) PendingMigrations(ctx context.Context) ([]*PendingMigration, error) {
	raw, err := b.Migrator().PendingMigrations(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*PendingMigration, len(raw))
	for i, m := range raw {
		out[i] = &PendingMigration{Version: m.Version, Description: m.Description, SQL: m.UpSQL}
	}
	return out, nil
}

func (b *postgresBackend) MigrateDown(ctx context.Context, steps int) error {
	return b.Migrator().MigrateDown(ctx, steps)
}

// Compile-time checks
var (
	_ Backend            = (*memory.Store)(nil)
	_ Backend            = (*sqliteBackend)(nil)
	_ MigrationInspector = (*sqliteBackend)(nil)
	_ Backuper           = (*sqliteBackend)(nil)
	_ Backend            = (*postgresBackend)(nil)
	_ MigrationInspector = (*postgresBackend)(nil)
)
