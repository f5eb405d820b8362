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
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/promptver/pkg/lifecycle"
	"github.com/teradata-labs/promptver/pkg/storage/backend"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(DataDirEnv, dir)
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, backend.TypeSQLite, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(dir, "promptver.db"), cfg.Storage.SQLite.Path)
	assert.Equal(t, 5*time.Second, cfg.Storage.SQLite.BusyTimeout)
	assert.Equal(t, "require", cfg.Storage.Postgres.SSLMode)
	assert.Equal(t, CacheMemory, cfg.Cache.Type)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, BrokerMemory, cfg.Notifications.Broker)
	assert.True(t, cfg.Notifications.Breaker.Enabled)
	assert.Equal(t, uint32(5), cfg.Notifications.Breaker.MaxFailures)
	assert.Equal(t, lifecycle.DefaultMaxLineageDepth, cfg.Lineage.MaxDepth)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, cfg, Default())
}

func TestLoad_FileAndEnv(t *testing.T) {
	t.Setenv(DataDirEnv, t.TempDir())
	path := filepath.Join(t.TempDir(), "promptver.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  backend: postgres
  postgres:
    host: db.internal
    database: prompts
    pool:
      max_conns: 10
cache:
  type: redis
  ttl: 30s
  redis:
    address: cache:6379
notifications:
  broker: jetstream
  outbox:
    enabled: true
    schedule: "@every 1m"
lineage:
  max_depth: 20
`), 0o600))

	t.Setenv("PROMPTVER_LOGGING_LEVEL", "debug")
	t.Setenv("PROMPTVER_CACHE_REDIS_DB", "3")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, backend.TypePostgres, cfg.Storage.Backend)
	assert.Equal(t, "db.internal", cfg.Storage.Postgres.Host)
	assert.Equal(t, int32(10), cfg.Storage.Postgres.Pool.MaxConns)
	assert.Equal(t, 5432, cfg.Storage.Postgres.Port)
	assert.Equal(t, CacheRedis, cfg.Cache.Type)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "cache:6379", cfg.Cache.Redis.Address)
	assert.Equal(t, 3, cfg.Cache.Redis.DB)
	assert.Equal(t, BrokerJetStream, cfg.Notifications.Broker)
	assert.Equal(t, "@every 1m", cfg.Notifications.Outbox.Schedule)
	assert.Equal(t, 20, cfg.Lineage.MaxDepth)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "promptver.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [unclosed"), 0o600))

	_, err := Load(viper.New(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:   "memory backend",
			mutate: func(c *Config) { c.Storage.Backend = backend.TypeMemory },
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Storage.Backend = "mongo" },
			wantErr: `invalid storage.backend "mongo"`,
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.Storage.SQLite.Path = "" },
			wantErr: "storage.sqlite.path is required",
		},
		{
			name: "postgres without location",
			mutate: func(c *Config) {
				c.Storage.Backend = backend.TypePostgres
				c.Storage.Postgres.Host = "db"
			},
			wantErr: "postgres backend requires",
		},
		{
			name: "postgres dsn",
			mutate: func(c *Config) {
				c.Storage.Backend = backend.TypePostgres
				c.Storage.Postgres.DSN = "postgres://localhost/prompts"
			},
		},
		{
			name:    "unknown cache",
			mutate:  func(c *Config) { c.Cache.Type = "memcached" },
			wantErr: `invalid cache.type "memcached"`,
		},
		{
			name:    "memory cache without ttl",
			mutate:  func(c *Config) { c.Cache.TTL = 0 },
			wantErr: "cache.ttl must be positive",
		},
		{
			name: "redis without address",
			mutate: func(c *Config) {
				c.Cache.Type = CacheRedis
				c.Cache.Redis.Address = ""
			},
			wantErr: "cache.redis.address is required",
		},
		{
			name:    "unknown broker",
			mutate:  func(c *Config) { c.Notifications.Broker = "kafka" },
			wantErr: `invalid notifications.broker "kafka"`,
		},
		{
			name:    "breaker without threshold",
			mutate:  func(c *Config) { c.Notifications.Breaker.MaxFailures = 0 },
			wantErr: "max_failures must be at least 1",
		},
		{
			name: "bad outbox schedule",
			mutate: func(c *Config) {
				c.Notifications.Outbox.Enabled = true
				c.Notifications.Outbox.Schedule = "every now and then"
			},
			wantErr: "invalid notifications.outbox.schedule",
		},
		{
			name:    "negative lineage depth",
			mutate:  func(c *Config) { c.Lineage.MaxDepth = -1 },
			wantErr: "lineage.max_depth must not be negative",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: `invalid logging.level "loud"`,
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: `invalid logging.format "xml"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(DataDirEnv, "/srv/promptver")
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_YAMLRoundTrip(t *testing.T) {
	t.Setenv(DataDirEnv, t.TempDir())
	cfg := Default()
	cfg.Storage.Backend = backend.TypeMemory
	cfg.Cache.TTL = 90 * time.Second

	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.Contains(t, out, "backend: memory")
	assert.Contains(t, out, "ttl: 1m30s")

	path := filepath.Join(t.TempDir(), "promptver.yaml")
	require.NoError(t, os.WriteFile(path, []byte(out), 0o600))

	loaded, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
