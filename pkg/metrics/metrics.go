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
// Package metrics records Prometheus metrics for the version lifecycle engine.
//
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeConflict = "conflict"
)

// CacheStats is implemented by version caches.
type CacheStats interface {
	Stats() (hits, misses uint64)
}

// Config configures NewRecorder.
type Config struct {
	Namespace string
	Registry  prometheus.Registerer
}

// Recorder records lifecycle metrics.
type Recorder struct {
	registry prometheus.Registerer
	ns       string

	operations    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	transitions   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	outboxPending prometheus.Gauge
}

// NewRecorder registers the lifecycle metrics with cfg.Registry, or the
// default registerer when none is set.
func NewRecorder(cfg Config) *Recorder {
	if cfg.Namespace == "" {
		cfg.Namespace = "promptver"
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(cfg.Registry)
	return &Recorder{
		registry: cfg.Registry,
		ns:       cfg.Namespace,
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "operations_total",
				Help:      "Lifecycle engine operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "operation_duration_seconds",
				Help:      "Time spent in lifecycle engine operations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "status_transitions_total",
				Help:      "Committed version status changes",
			},
			[]string{"from", "to"},
		),
		notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "notifications_total",
				Help:      "Status change notifications by outcome",
			},
			[]string{"outcome"},
		),
		outboxPending: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "outbox_pending",
				Help:      "Notifications waiting for redelivery",
			},
		),
	}
}

// ObserveOperation records one finished operation.
func (r *Recorder) ObserveOperation(op, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.operations.WithLabelValues(op, outcome).Inc()
	r.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// Transition records a committed status change.
func (r *Recorder) Transition(from, to string) {
	if r == nil {
		return
	}
	r.transitions.WithLabelValues(from, to).Inc()
}

// Notification records a notification delivery outcome.
func (r *Recorder) Notification(outcome string) {
	if r == nil {
		return
	}
	r.notifications.WithLabelValues(outcome).Inc()
}

// OutboxPending sets the number of notifications awaiting redelivery.
func (r *Recorder) OutboxPending(n int) {
	if r == nil {
		return
	}
	r.outboxPending.Set(float64(n))
}

// RegisterCache exports the hit and miss counts of cache.
func (r *Recorder) RegisterCache(name string, cache CacheStats) {
	if r == nil || cache == nil {
		return
	}
	factory := promauto.With(r.registry)
	labels := prometheus.Labels{"cache": name}
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace:   r.ns,
		Name:        "cache_hits_total",
		Help:        "Version cache hits",
		ConstLabels: labels,
	}, func() float64 {
		hits, _ := cache.Stats()
		return float64(hits)
	})
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace:   r.ns,
		Name:        "cache_misses_total",
		Help:        "Version cache misses",
		ConstLabels: labels,
	}, func() float64 {
		_, misses := cache.Stats()
		return float64(misses)
	})
}
