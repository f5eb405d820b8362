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
package prompts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisCache is a VersionCache shared between processes through Redis.
//
// Each id has a generation counter under "<prefix>gen:<id>" that Invalidate
// increments. Versions are stored as JSON under
// "<prefix>version:<id>:<generation>", so a fill that read the generation
// before an invalidation writes a key no reader looks up again.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *zap.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
}

// RedisCacheConfig configures NewRedisCache.
type RedisCacheConfig struct {
	Address  string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, cfg RedisCacheConfig, logger *zap.Logger) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCacheFromClient(rdb, cfg.Prefix, cfg.TTL, logger), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client redis.UniversalClient, prefix string, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefix == "" {
		prefix = "promptver:"
	}
	return &RedisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With(zap.String("component", "redis-cache")),
	}
}

// Get reads id from Redis, loading and storing it on a miss. Redis read or
// decode failures degrade to a load. When the generation cannot be read the
// loaded version is not stored.
func (c *RedisCache) Get(ctx context.Context, id string, load LoadFunc) (*Version, error) {
	gen, err := c.client.Get(ctx, c.genKey(id)).Uint64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("Failed to read cache generation", zap.String("id", id), zap.Error(err))
		c.misses.Add(1)
		return load(ctx)
	}
	key := c.key(id, gen)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var v Version
		jerr := json.Unmarshal(data, &v)
		if jerr == nil {
			c.hits.Add(1)
			return &v, nil
		}
		c.logger.Warn("Failed to decode cached version", zap.String("key", key), zap.Error(jerr))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("Failed to read version from cache", zap.String("key", key), zap.Error(err))
	}

	c.misses.Add(1)
	v, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(v); err != nil {
		c.logger.Warn("Failed to encode version for cache", zap.String("key", key), zap.Error(err))
	} else if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to write version to cache", zap.String("key", key), zap.Error(err))
	}

	return v.Clone(), nil
}

// Invalidate advances the generation of ids and deletes the entries of the
// previous generation. Only a failed increment is returned.
func (c *RedisCache) Invalidate(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	incrs := make([]*redis.IntCmd, len(ids))
	if _, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			incrs[i] = pipe.Incr(ctx, c.genKey(id))
		}
		return nil
	}); err != nil {
		return fmt.Errorf("failed to invalidate cached versions: %w", err)
	}

	stale := make([]string, len(ids))
	for i, id := range ids {
		stale[i] = c.key(id, uint64(incrs[i].Val()-1))
	}
	if err := c.client.Del(ctx, stale...).Err(); err != nil {
		c.logger.Warn("Failed to delete superseded cache entries", zap.Strings("keys", stale), zap.Error(err))
	}
	return nil
}

// Stats returns cache hit/miss statistics for this process.
func (c *RedisCache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) key(id string, gen uint64) string {
	return c.prefix + "version:" + id + ":" + strconv.FormatUint(gen, 10)
}

func (c *RedisCache) genKey(id string) string {
	return c.prefix + "gen:" + id
}

var _ VersionCache = (*RedisCache)(nil)
