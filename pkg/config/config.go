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
// Package config loads promptver configuration.
//
// Sources, lowest priority first: built-in defaults, the YAML config file,
// PROMPTVER_* environment variables, then command line flags bound by the
// caller. Nested keys map to environment variables with dots replaced by
// underscores, e.g. PROMPTVER_STORAGE_BACKEND.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/teradata-labs/promptver/pkg/lifecycle"
	"github.com/teradata-labs/promptver/pkg/notify"
	"github.com/teradata-labs/promptver/pkg/storage/backend"
)

const (
	// DefaultConfigFileName is searched for without extension.
	DefaultConfigFileName = "promptver"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "PROMPTVER"
)

// Cache types.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Notification brokers.
const (
	BrokerNone      = "none"
	BrokerMemory    = "memory"
	BrokerJetStream = "jetstream"
)

// Config is the full promptver configuration.
type Config struct {
	// DataDir is resolved from PROMPTVER_DATA_DIR and never read from the file.
	DataDir string `mapstructure:"-" yaml:"-"`

	Storage       backend.Config      `mapstructure:"storage" yaml:"storage"`
	Cache         CacheConfig         `mapstructure:"cache" yaml:"cache"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
	Lineage       LineageConfig       `mapstructure:"lineage" yaml:"lineage"`
	Logging       LoggingConfig       `mapstructure:"logging" yaml:"logging"`
	Metrics       MetricsConfig       `mapstructure:"metrics" yaml:"metrics"`
}

// CacheConfig configures the read-through version cache.
type CacheConfig struct {
	// Type is none, memory or redis.
	Type  string        `mapstructure:"type" yaml:"type"`
	TTL   time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Redis RedisConfig   `mapstructure:"redis" yaml:"redis"`
}

// RedisConfig locates the shared cache.
type RedisConfig struct {
	Address  string `mapstructure:"address" yaml:"address"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
}

// NotificationsConfig configures status change delivery.
type NotificationsConfig struct {
	// Broker is none, memory or jetstream.
	Broker    string          `mapstructure:"broker" yaml:"broker"`
	JetStream JetStreamConfig `mapstructure:"jetstream" yaml:"jetstream"`
	Breaker   BreakerConfig   `mapstructure:"breaker" yaml:"breaker"`
	Outbox    OutboxConfig    `mapstructure:"outbox" yaml:"outbox"`
}

// JetStreamConfig locates the NATS stream.
type JetStreamConfig struct {
	URL             string        `mapstructure:"url" yaml:"url"`
	Stream          string        `mapstructure:"stream" yaml:"stream"`
	SubjectPrefix   string        `mapstructure:"subject_prefix" yaml:"subject_prefix"`
	DuplicateWindow time.Duration `mapstructure:"duplicate_window" yaml:"duplicate_window"`
}

// BreakerConfig guards the broker with a circuit breaker.
type BreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled" yaml:"enabled"`
	MaxFailures uint32        `mapstructure:"max_failures" yaml:"max_failures"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// OutboxConfig retries undelivered notifications on a cron schedule.
type OutboxConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Schedule string `mapstructure:"schedule" yaml:"schedule"`
}

// LineageConfig bounds lineage walks.
type LineageConfig struct {
	MaxDepth int `mapstructure:"max_depth" yaml:"max_depth"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
	// TextFile, when set, receives the metrics of each run in the
	// Prometheus text format for a textfile collector.
	TextFile string `mapstructure:"textfile" yaml:"textfile,omitempty"`
}

// Load reads configuration. An empty cfgFile searches the data directory,
// the current directory and /etc/promptver for promptver.yaml; a missing
// file is not an error.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	dataDir := GetDataDir()
	setDefaults(v, dataDir)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(dataDir)
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/promptver/")
		v.SetConfigName(DefaultConfigFileName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.DataDir = dataDir
	return &cfg, nil
}

// Default returns the configuration Load produces without a file or
// environment overrides.
func Default() *Config {
	v := viper.New()
	dataDir := GetDataDir()
	setDefaults(v, dataDir)

	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	cfg.DataDir = dataDir
	return &cfg
}

func setDefaults(v *viper.Viper, dataDir string) {
	v.SetDefault("storage.backend", string(backend.TypeSQLite))
	v.SetDefault("storage.sqlite.path", filepath.Join(dataDir, "promptver.db"))
	v.SetDefault("storage.sqlite.encryption_key", "")
	v.SetDefault("storage.sqlite.busy_timeout", 5*time.Second)
	v.SetDefault("storage.postgres.dsn", "")
	v.SetDefault("storage.postgres.host", "")
	v.SetDefault("storage.postgres.port", 5432)
	v.SetDefault("storage.postgres.database", "")
	v.SetDefault("storage.postgres.user", "")
	v.SetDefault("storage.postgres.password", "")
	v.SetDefault("storage.postgres.ssl_mode", "require")
	v.SetDefault("storage.postgres.schema", "")
	v.SetDefault("storage.postgres.pool.max_conns", 25)
	v.SetDefault("storage.postgres.pool.min_conns", 2)

	v.SetDefault("cache.type", CacheMemory)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.redis.address", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.prefix", "promptver:")

	v.SetDefault("notifications.broker", BrokerMemory)
	v.SetDefault("notifications.jetstream.url", "nats://127.0.0.1:4222")
	v.SetDefault("notifications.jetstream.stream", "PROMPT_VERSIONS")
	v.SetDefault("notifications.jetstream.subject_prefix", notify.DefaultSubjectPrefix)
	v.SetDefault("notifications.jetstream.duplicate_window", 2*time.Minute)
	v.SetDefault("notifications.breaker.enabled", true)
	v.SetDefault("notifications.breaker.max_failures", 5)
	v.SetDefault("notifications.breaker.timeout", 30*time.Second)
	v.SetDefault("notifications.outbox.enabled", false)
	v.SetDefault("notifications.outbox.schedule", notify.DefaultRelaySchedule)

	v.SetDefault("lineage.max_depth", lifecycle.DefaultMaxLineageDepth)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.namespace", "promptver")
	v.SetDefault("metrics.textfile", "")
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "", backend.TypeSQLite:
		if c.Storage.SQLite.Path == "" {
			return fmt.Errorf("storage.sqlite.path is required for the sqlite backend")
		}
	case backend.TypePostgres:
		pg := c.Storage.Postgres
		if pg.DSN == "" && (pg.Host == "" || pg.Database == "") {
			return fmt.Errorf("postgres backend requires storage.postgres.dsn or storage.postgres.host and storage.postgres.database")
		}
	case backend.TypeMemory:
	default:
		return fmt.Errorf("invalid storage.backend %q (expected one of %v)", c.Storage.Backend, backend.Types)
	}

	switch c.Cache.Type {
	case "", CacheNone:
	case CacheMemory:
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive for the memory cache")
		}
	case CacheRedis:
		if c.Cache.Redis.Address == "" {
			return fmt.Errorf("cache.redis.address is required for the redis cache")
		}
		if c.Cache.TTL < 0 {
			return fmt.Errorf("cache.ttl must not be negative")
		}
	default:
		return fmt.Errorf("invalid cache.type %q (expected none, memory or redis)", c.Cache.Type)
	}

	n := c.Notifications
	if !slices.Contains([]string{"", BrokerNone, BrokerMemory, BrokerJetStream}, n.Broker) {
		return fmt.Errorf("invalid notifications.broker %q (expected none, memory or jetstream)", n.Broker)
	}
	if n.Broker == BrokerJetStream && n.JetStream.URL == "" {
		return fmt.Errorf("notifications.jetstream.url is required for the jetstream broker")
	}
	if n.Breaker.Enabled && n.Breaker.MaxFailures == 0 {
		return fmt.Errorf("notifications.breaker.max_failures must be at least 1")
	}
	if n.Outbox.Enabled && n.Outbox.Schedule != "" {
		if _, err := cron.ParseStandard(n.Outbox.Schedule); err != nil {
			return fmt.Errorf("invalid notifications.outbox.schedule %q: %w", n.Outbox.Schedule, err)
		}
	}

	if c.Lineage.MaxDepth < 0 {
		return fmt.Errorf("lineage.max_depth must not be negative")
	}

	if c.Logging.Level != "" {
		if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
			return fmt.Errorf("invalid logging.level %q: %w", c.Logging.Level, err)
		}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "console", "json":
	default:
		return fmt.Errorf("invalid logging.format %q (expected text or json)", c.Logging.Format)
	}

	return nil
}

// YAML renders c as a config file.
func (c *Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	return string(out), nil
}
