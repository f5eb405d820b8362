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
// Package postgres implements prompts.Store on PostgreSQL with pgx. A unit
// of work is one transaction holding the advisory lock for its key, so
// units of work on the same template are serialized across processes.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/teradata-labs/promptver/internal/log"
	"github.com/teradata-labs/promptver/internal/pgxdriver"
	"github.com/teradata-labs/promptver/pkg/observability"
	"github.com/teradata-labs/promptver/pkg/prompts"
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is a PostgreSQL-backed prompts.Store.
type Store struct {
	pool     *pgxpool.Pool
	migrator *Migrator
	tracer   observability.Tracer
	logger   *zap.Logger
}

// Open connects to PostgreSQL and migrates the schema.
func Open(ctx context.Context, cfg pgxdriver.Config, tracer observability.Tracer, logger *zap.Logger) (*Store, error) {
	tracer = observability.OrNoOp(tracer)
	ctx, span := tracer.StartSpan(ctx, observability.SpanPostgresOpen,
		observability.WithAttribute(observability.AttrStoreBackend, "postgres"))
	defer tracer.EndSpan(span)

	pool, err := pgxdriver.NewPool(ctx, cfg, tracer)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	s, err := New(pool, tracer, logger)
	if err != nil {
		pool.Close()
		span.RecordError(err)
		return nil, err
	}
	if err := s.migrator.MigrateUp(ctx); err != nil {
		pool.Close()
		span.RecordError(err)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// New wraps an existing pool without migrating.
func New(pool *pgxpool.Pool, tracer observability.Tracer, logger *zap.Logger) (*Store, error) {
	tracer = observability.OrNoOp(tracer)
	migrator, err := NewMigrator(pool, tracer)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return &Store{
		pool:     pool,
		migrator: migrator,
		tracer:   tracer,
		logger:   log.OrNop(logger).With(zap.String("component", "postgres-store")),
	}, nil
}

// InTx runs fn in a transaction holding the advisory lock for lockKey.
func (s *Store) InTx(ctx context.Context, lockKey string, fn func(ctx context.Context, tx prompts.Tx) error) error {
	ctx, span := s.tracer.StartSpan(ctx, observability.SpanPostgresInTx,
		observability.WithAttribute(observability.AttrTemplateID, lockKey))
	defer s.tracer.EndSpan(span)

	err := pgxdriver.InLockedTx(ctx, s.pool, lockKey, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, txView(tx))
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// view binds the repositories to a querier. write runs a multi-statement
// change atomically.
type view struct {
	q     querier
	write func(ctx context.Context, fn func(q querier) error) error
}

func txView(tx pgx.Tx) *view {
	return &view{
		q: tx,
		write: func(_ context.Context, fn func(q querier) error) error {
			return fn(tx)
		},
	}
}

func (s *Store) poolView() *view {
	return &view{
		q: s.pool,
		write: func(ctx context.Context, fn func(q querier) error) error {
			return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error { return fn(tx) })
		},
	}
}

func (v *view) Versions() prompts.VersionStore   { return versions{v} }
func (v *view) Templates() prompts.TemplateStore { return templates{v} }
func (v *view) Audit() prompts.AuditSink         { return audit{v} }

// Versions returns the version repository outside any unit of work.
func (s *Store) Versions() prompts.VersionStore { return s.poolView().Versions() }

// Templates returns the template repository outside any unit of work.
func (s *Store) Templates() prompts.TemplateStore { return s.poolView().Templates() }

// Audit returns the audit log outside any unit of work.
func (s *Store) Audit() prompts.AuditSink { return s.poolView().Audit() }

// Name returns "postgres".
func (s *Store) Name() string { return "postgres" }

// Migrator exposes the schema migrator.
func (s *Store) Migrator() *Migrator { return s.migrator }

// Ping verifies the connection.
func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

var _ prompts.Store = (*Store)(nil)
