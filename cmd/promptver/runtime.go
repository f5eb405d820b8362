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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/teradata-labs/promptver/internal/log"
	"github.com/teradata-labs/promptver/pkg/config"
	"github.com/teradata-labs/promptver/pkg/lifecycle"
	"github.com/teradata-labs/promptver/pkg/metrics"
	"github.com/teradata-labs/promptver/pkg/notify"
	"github.com/teradata-labs/promptver/pkg/observability"
	"github.com/teradata-labs/promptver/pkg/prompts"
	"github.com/teradata-labs/promptver/pkg/storage/backend"
)

// runtime is the engine and the collaborators assembled from config.
type runtime struct {
	engine  *lifecycle.Engine
	store   backend.Backend
	logger  *zap.Logger
	closers []func()
}

// open assembles the engine described by the loaded configuration.
func (c *cli) open(ctx context.Context) (_ *runtime, err error) {
	cfg := c.cfg

	logger, err := log.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	log.SetLogger(logger)

	rt := &runtime{logger: logger}
	defer func() {
		if err != nil {
			rt.Close()
		}
	}()
	rt.closers = append(rt.closers, func() { _ = logger.Sync() })

	tracer := observability.NewNoOpTracer()

	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		recorder = metrics.NewRecorder(metrics.Config{Namespace: cfg.Metrics.Namespace, Registry: registry})
		if path := cfg.Metrics.TextFile; path != "" {
			rt.closers = append(rt.closers, func() {
				if err := prometheus.WriteToTextfile(path, registry); err != nil {
					logger.Warn("Failed to write metrics", zap.String("path", path), zap.Error(err))
				}
			})
		}
	}

	store, err := c.openBackend(ctx, cfg.Storage, tracer, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", backendName(cfg.Storage.Backend), err)
	}
	rt.store = store
	rt.closers = append(rt.closers, func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close storage", zap.Error(err))
		}
	})

	opts := []lifecycle.Option{
		lifecycle.WithLogger(logger),
		lifecycle.WithTracer(tracer),
		lifecycle.WithMaxLineageDepth(cfg.Lineage.MaxDepth),
	}
	if recorder != nil {
		opts = append(opts, lifecycle.WithMetrics(recorder))
	}

	cache, err := rt.openCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		opts = append(opts, lifecycle.WithCache(cache))
		recorder.RegisterCache(cfg.Cache.Type, cache)
	}

	notifier, err := rt.openNotifier(ctx, cfg.Notifications, recorder)
	if err != nil {
		return nil, err
	}
	if notifier != nil {
		opts = append(opts, lifecycle.WithNotifier(notifier))
	}

	rt.engine = lifecycle.New(store, opts...)
	return rt, nil
}

func (rt *runtime) openCache(ctx context.Context, cfg config.CacheConfig) (prompts.VersionCache, error) {
	switch cfg.Type {
	case config.CacheMemory:
		return prompts.NewMemoryCache(cfg.TTL), nil
	case config.CacheRedis:
		cache, err := prompts.NewRedisCache(ctx, prompts.RedisCacheConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      cfg.TTL,
		}, rt.logger)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() { _ = cache.Close() })
		return cache, nil
	default:
		return nil, nil
	}
}

// openNotifier builds the broker, then wraps it in the circuit breaker and
// the outbox when they are enabled.
func (rt *runtime) openNotifier(ctx context.Context, cfg config.NotificationsConfig, recorder *metrics.Recorder) (prompts.Notifier, error) {
	var n prompts.Notifier
	switch cfg.Broker {
	case config.BrokerMemory:
		broker := notify.NewBroker(rt.logger)
		rt.closers = append(rt.closers, broker.Shutdown)
		n = broker
	case config.BrokerJetStream:
		js, closeJS, err := notify.DialJetStream(ctx, notify.JetStreamConfig{
			URL:             cfg.JetStream.URL,
			Stream:          cfg.JetStream.Stream,
			SubjectPrefix:   cfg.JetStream.SubjectPrefix,
			DuplicateWindow: cfg.JetStream.DuplicateWindow,
		}, rt.logger)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, closeJS)
		n = js
	default:
		return nil, nil
	}

	if cfg.Breaker.Enabled {
		n = notify.NewBreaker(n, notify.BreakerConfig{
			Name:        cfg.Broker,
			MaxFailures: cfg.Breaker.MaxFailures,
			Timeout:     cfg.Breaker.Timeout,
			Logger:      rt.logger,
		})
	}

	if cfg.Outbox.Enabled {
		outbox := notify.NewOutbox(n, rt.logger, recorder)
		if err := outbox.Start(cfg.Outbox.Schedule); err != nil {
			return nil, err
		}
		// Closers run in reverse, so the final relay happens before the
		// broker connection closes.
		rt.closers = append(rt.closers, func() {
			outbox.Stop()
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			outbox.Relay(flushCtx)
		})
		n = outbox
	}
	return n, nil
}

// Close releases everything open opened, most recent first.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

func backendName(t backend.Type) string {
	if t == "" {
		return string(backend.TypeSQLite)
	}
	return string(t)
}
