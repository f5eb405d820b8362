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

package pgxdriver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teradata-labs/promptver/pkg/observability"
)

// Config describes a PostgreSQL connection. DSN, when set, takes
// precedence over the individual fields.
type Config struct {
	DSN      string `mapstructure:"dsn" yaml:"dsn"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Database string `mapstructure:"database" yaml:"database"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	SSLMode  string `mapstructure:"ssl_mode" yaml:"ssl_mode"`
	Schema   string `mapstructure:"schema" yaml:"schema"`

	Pool PoolConfig `mapstructure:"pool" yaml:"pool"`
}

// PoolConfig sizes the connection pool. Zero values take defaults.
type PoolConfig struct {
	MaxConns            int32         `mapstructure:"max_conns" yaml:"max_conns"`
	MinConns            int32         `mapstructure:"min_conns" yaml:"min_conns"`
	MaxConnIdleTime     time.Duration `mapstructure:"max_conn_idle_time" yaml:"max_conn_idle_time"`
	MaxConnLifetime     time.Duration `mapstructure:"max_conn_lifetime" yaml:"max_conn_lifetime"`
	HealthCheckInterval time.Duration `mapstructure:"health_check_interval" yaml:"health_check_interval"`
}

// NewPool creates and pings a pgxpool.Pool.
func NewPool(ctx context.Context, cfg Config, tracer observability.Tracer) (*pgxpool.Pool, error) {
	tracer = observability.OrNoOp(tracer)
	ctx, span := tracer.StartSpan(ctx, "pgxdriver.new_pool")
	defer tracer.EndSpan(span)

	dsn := buildDSN(cfg)
	if dsn == "" {
		return nil, fmt.Errorf("postgres configuration requires either dsn or host+database")
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
	}
	applyPoolConfig(poolCfg, cfg.Pool)

	schema := cfg.Schema
	if schema == "" {
		schema = "public"
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize()))
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create postgres connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		span.RecordError(err)
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	span.SetAttribute("pool.max_conns", poolCfg.MaxConns)
	span.SetAttribute("pool.schema", schema)
	return pool, nil
}

// buildDSN returns cfg.DSN, or a libpq keyword/value string built from the
// individual fields. Empty when neither a DSN nor host and database are set.
func buildDSN(cfg Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	if cfg.Host == "" || cfg.Database == "" {
		return ""
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		quote(cfg.Host), port, quote(cfg.Database), quote(sslMode))
	if cfg.User != "" {
		dsn += " user=" + quote(cfg.User)
	}
	if cfg.Password != "" {
		dsn += " password=" + quote(cfg.Password)
	}
	return dsn
}

// quote single-quotes a libpq keyword value, escaping quotes and
// backslashes.
func quote(val string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(val) + "'"
}

func applyPoolConfig(poolCfg *pgxpool.Config, cfg PoolConfig) {
	poolCfg.MaxConns = orDefault(cfg.MaxConns, 25)
	poolCfg.MinConns = orDefault(cfg.MinConns, 2)
	poolCfg.MaxConnIdleTime = orDefault(cfg.MaxConnIdleTime, 5*time.Minute)
	poolCfg.MaxConnLifetime = orDefault(cfg.MaxConnLifetime, time.Hour)
	poolCfg.HealthCheckPeriod = orDefault(cfg.HealthCheckInterval, 30*time.Second)
}

func orDefault[T int32 | time.Duration](v, def T) T {
	if v > 0 {
		return v
	}
	return def
}
