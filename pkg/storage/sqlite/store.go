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
// Package sqlite implements prompts.Store on SQLite. Schema changes are
// applied from embedded migrations when the store opens. Units of work are
// database transactions; writers are serialized within the process.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/promptver/internal/log"
	"github.com/teradata-labs/promptver/internal/sqlitedriver"
	"github.com/teradata-labs/promptver/pkg/observability"
	"github.com/teradata-labs/promptver/pkg/prompts"
)

// Config configures Open.
type Config struct {
	// Path is the database file. Use sqlitedriver.MemoryPath for a private
	// in-memory database.
	Path string

	// EncryptionKey enables SQLCipher encryption at rest.
	EncryptionKey string

	// BusyTimeout bounds lock waits. Default: 5s.
	BusyTimeout time.Duration
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is a SQLite-backed prompts.Store.
type Store struct {
	db       *sql.DB
	cfg      Config
	migrator *Migrator
	tracer   observability.Tracer
	logger   *zap.Logger

	writeMu sync.Mutex
}

// Open opens the database and migrates it to the latest schema.
func Open(ctx context.Context, cfg Config, tracer observability.Tracer, logger *zap.Logger) (*Store, error) {
	tracer = observability.OrNoOp(tracer)
	ctx, span := tracer.StartSpan(ctx, observability.SpanSQLiteOpen,
		observability.WithAttribute(observability.AttrStoreBackend, "sqlite"))
	defer tracer.EndSpan(span)

	db, err := sqlitedriver.Open(ctx, sqlitedriver.Options{
		Path:          cfg.Path,
		EncryptionKey: cfg.EncryptionKey,
		BusyTimeout:   cfg.BusyTimeout,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	migrator, err := NewMigrator(db, tracer)
	if err != nil {
		_ = db.Close()
		span.RecordError(err)
		return nil, err
	}
	if err := migrator.MigrateUp(ctx); err != nil {
		_ = db.Close()
		span.RecordError(err)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	s := &Store{
		db:       db,
		cfg:      cfg,
		migrator: migrator,
		tracer:   tracer,
		logger:   log.OrNop(logger).With(zap.String("component", "sqlite-store")),
	}
	s.logger.Debug("Opened database", zap.String("path", cfg.Path))
	return s, nil
}

// InTx runs fn in one transaction. Writers are serialized; lockKey only
// labels the span.
func (s *Store) InTx(ctx context.Context, lockKey string, fn func(ctx context.Context, tx prompts.Tx) error) error {
	ctx, span := s.tracer.StartSpan(ctx, observability.SpanSQLiteInTx,
		observability.WithAttribute(observability.AttrTemplateID, lockKey))
	defer s.tracer.EndSpan(span)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return fn(ctx, s.txView(tx))
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// view binds the repositories to a querier. write runs a multi-statement
// change atomically.
type view struct {
	q     querier
	write func(ctx context.Context, fn func(q querier) error) error
}

func (s *Store) txView(tx *sql.Tx) *view {
	return &view{
		q: tx,
		write: func(_ context.Context, fn func(q querier) error) error {
			return fn(tx)
		},
	}
}

func (s *Store) dbView() *view {
	return &view{
		q: s.db,
		write: func(ctx context.Context, fn func(q querier) error) error {
			return s.withTx(ctx, func(tx *sql.Tx) error { return fn(tx) })
		},
	}
}

func (v *view) Versions() prompts.VersionStore   { return versions{v} }
func (v *view) Templates() prompts.TemplateStore { return templates{v} }
func (v *view) Audit() prompts.AuditSink         { return audit{v} }

// Versions returns the version repository outside any unit of work.
func (s *Store) Versions() prompts.VersionStore { return s.dbView().Versions() }

// Templates returns the template repository outside any unit of work.
func (s *Store) Templates() prompts.TemplateStore { return s.dbView().Templates() }

// Audit returns the audit log outside any unit of work.
func (s *Store) Audit() prompts.AuditSink { return s.dbView().Audit() }

// Name returns "sqlite".
func (s *Store) Name() string { return "sqlite" }

// Migrator exposes the schema migrator.
func (s *Store) Migrator() *Migrator { return s.migrator }

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Backup writes a consistent copy of the database next to it, named
// "<path>.backup.<timestamp>", and verifies it. Partial files are removed
// on failure.
func (s *Store) Backup(ctx context.Context) (backupPath string, err error) {
	if s.cfg.Path == sqlitedriver.MemoryPath {
		return "", fmt.Errorf("backup: in-memory databases cannot be backed up")
	}
	ctx, span := s.tracer.StartSpan(ctx, observability.SpanSQLiteBackup)
	defer s.tracer.EndSpan(span)

	backupPath = s.cfg.Path + ".backup." + time.Now().UTC().Format("20060102T150405.000000000")
	span.SetAttribute("backup.path", backupPath)

	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", backupPath); err != nil {
		_ = os.Remove(backupPath)
		span.RecordError(err)
		return "", fmt.Errorf("backup: vacuum into %q: %w", backupPath, err)
	}
	if err := VerifyBackup(ctx, backupPath, s.cfg.EncryptionKey); err != nil {
		_ = os.Remove(backupPath)
		span.RecordError(err)
		return "", fmt.Errorf("backup: verification failed for %q: %w", backupPath, err)
	}

	s.logger.Info("Backed up database", zap.String("path", backupPath))
	return backupPath, nil
}

// VerifyBackup runs PRAGMA integrity_check on the database at path.
func VerifyBackup(ctx context.Context, path, encryptionKey string) error {
	db, err := sqlitedriver.Open(ctx, sqlitedriver.Options{Path: path, EncryptionKey: encryptionKey})
	if err != nil {
		return fmt.Errorf("verify backup: open %q: %w", path, err)
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("verify backup: integrity check on %q: %w", path, err)
	}
	if result != "ok" {
		return fmt.Errorf("verify backup: integrity check failed on %q: %s", path, result)
	}
	return nil
}

var _ prompts.Store = (*Store)(nil)
