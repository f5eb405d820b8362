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
// Package backend selects and opens the storage backend behind the
// lifecycle engine. It sits above the individual store packages so they
// stay free of each other.
package backend

import (
	"context"
	"time"

	"github.com/teradata-labs/promptver/internal/pgxdriver"
	"github.com/teradata-labs/promptver/pkg/prompts"
)

// Type names a storage backend.
type Type string

const (
	TypeMemory   Type = "memory"
	TypeSQLite   Type = "sqlite"
	TypePostgres Type = "postgres"
)

// Types lists the supported backends.
var Types = []Type{TypeMemory, TypeSQLite, TypePostgres}

// Config selects a backend and carries its settings.
type Config struct {
	Backend  Type             `mapstructure:"backend" yaml:"backend"`
	SQLite   SQLiteConfig     `mapstructure:"sqlite" yaml:"sqlite"`
	Postgres pgxdriver.Config `mapstructure:"postgres" yaml:"postgres"`
}

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	Path          string        `mapstructure:"path" yaml:"path"`
	EncryptionKey string        `mapstructure:"encryption_key" yaml:"encryption_key,omitempty"`
	BusyTimeout   time.Duration `mapstructure:"busy_timeout" yaml:"busy_timeout"`
}

// Backend is a store the engine can run on.
type Backend interface {
	prompts.Store

	// Ping verifies the backend is reachable and healthy.
	Ping(ctx context.Context) error
}

// MigrationInspector is implemented by backends with a versioned schema.
type MigrationInspector interface {
	// CurrentVersion returns the highest applied migration, 0 when none.
	CurrentVersion(ctx context.Context) (int, error)

	// PendingMigrations lists migrations not yet applied.
	PendingMigrations(ctx context.Context) ([]*PendingMigration, error)

	// MigrateDown rolls back the latest steps migrations.
	MigrateDown(ctx context.Context, steps int) error
}

// PendingMigration describes a single migration that has not yet been applied.
type PendingMigration struct {
	Version     int
	Description string
	SQL         string
}

// Backuper is implemented by backends that can snapshot themselves.
type Backuper interface {
	// Backup writes a verified copy and returns where it was written.
	Backup(ctx context.Context) (string, error)
}
