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
// Package lifecycle implements the prompt version lifecycle engine.
//
// The Engine creates versions, moves them through the status state machine,
// branches and rolls them back, and compares them. Every operation that
// writes runs as one unit of work of the backing prompts.Store, serialized
// per template. Status change notifications are published and cache
// entries invalidated only after the unit of work commits.
//
// Example usage:
//
//	engine := lifecycle.New(store,
//	    lifecycle.WithCache(prompts.NewMemoryCache(5*time.Minute)),
//	    lifecycle.WithNotifier(notifier),
//	    lifecycle.WithLogger(logger),
//	)
//
//	ctx = lifecycle.WithActor(ctx, "alice")
//	v, err := engine.Create(ctx, lifecycle.CreateRequest{
//	    TemplateID:    tplID,
//	    VersionNumber: "1.0.0",
//	    Content:       "Summarize {{text}}",
//	})
//	v, err = engine.Transition(ctx, v.ID, prompts.StatusReview)
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teradata-labs/promptver/internal/csync"
	"github.com/teradata-labs/promptver/internal/log"
	"github.com/teradata-labs/promptver/pkg/metrics"
	"github.com/teradata-labs/promptver/pkg/observability"
	"github.com/teradata-labs/promptver/pkg/prompts"
)

// DefaultMaxLineageDepth bounds lineage walks.
const DefaultMaxLineageDepth = 100

// Engine is the version lifecycle engine.
// Thread-safe: All methods can be called concurrently.
type Engine struct {
	store    prompts.Store
	cache    prompts.VersionCache
	notifier prompts.Notifier
	tracer   observability.Tracer
	metrics  *metrics.Recorder
	logger   *zap.Logger

	locks *csync.KeyedMutex
	now   func() time.Time
	newID func() string

	maxLineageDepth int
}

// Option is a functional option for configuring an Engine.
type Option func(*Engine)

// WithCache sets the read-through version cache.
func WithCache(cache prompts.VersionCache) Option {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithNotifier sets the status change notifier.
func WithNotifier(n prompts.Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithTracer sets the observability tracer.
func WithTracer(tracer observability.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(e *Engine) {
		e.metrics = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock sets the time source for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator sets the generator for version, audit and event ids.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		e.newID = newID
	}
}

// WithMaxLineageDepth bounds lineage walks. Values below 1 keep the default.
func WithMaxLineageDepth(depth int) Option {
	return func(e *Engine) {
		if depth > 0 {
			e.maxLineageDepth = depth
		}
	}
}

// New creates an engine backed by store.
func New(store prompts.Store, opts ...Option) *Engine {
	e := &Engine{
		store:           store,
		cache:           prompts.NoCache{},
		notifier:        nopNotifier{},
		tracer:          observability.NewNoOpTracer(),
		logger:          zap.NewNop(),
		locks:           csync.NewKeyedMutex(),
		now:             func() time.Time { return time.Now().UTC() },
		newID:           uuid.NewString,
		maxLineageDepth: DefaultMaxLineageDepth,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.cache == nil {
		e.cache = prompts.NoCache{}
	}
	if e.notifier == nil {
		e.notifier = nopNotifier{}
	}
	e.tracer = observability.OrNoOp(e.tracer)
	e.logger = log.OrNop(e.logger).With(zap.String("component", "lifecycle"))
	return e
}

type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, prompts.StatusChangeEvent) error { return nil }

// work collects the side effects of one unit of work. They are applied
// after commit.
type work struct {
	actor   string
	events  []prompts.StatusChangeEvent
	touched []string
}

func (w *work) touch(ids ...string) {
	w.touched = append(w.touched, ids...)
}

// mutate runs fn as one unit of work for templateID, then invalidates the
// touched cache entries and publishes the queued events. A failed
// invalidation is returned as ErrCacheInvalidation after the events are
// published.
func (e *Engine) mutate(ctx context.Context, templateID string, fn func(ctx context.Context, tx prompts.Tx, w *work) error) error {
	unlock := e.locks.Lock(templateID)
	defer unlock()

	w := &work{actor: ActorFrom(ctx)}
	err := e.store.InTx(ctx, templateID, func(ctx context.Context, tx prompts.Tx) error {
		w.events = w.events[:0]
		w.touched = w.touched[:0]
		return fn(ctx, tx, w)
	})
	if err != nil {
		return err
	}

	var invalidateErr error
	if len(w.touched) > 0 {
		if err := e.cache.Invalidate(ctx, w.touched...); err != nil {
			e.logger.Error("Failed to invalidate cached versions after commit",
				zap.Strings("version_ids", w.touched), zap.Error(err))
			invalidateErr = fmt.Errorf("write committed: %w: %w", prompts.ErrCacheInvalidation, err)
		}
	}

	for _, ev := range w.events {
		e.metrics.Transition(string(ev.PreviousStatus), string(ev.NewStatus))
		e.publish(ctx, ev)
	}
	return invalidateErr
}

// publish delivers ev. Failures are logged and counted, never returned.
func (e *Engine) publish(ctx context.Context, ev prompts.StatusChangeEvent) {
	if err := e.notifier.Publish(ctx, ev); err != nil {
		e.metrics.Notification(metrics.OutcomeError)
		e.logger.Error("Failed to publish status change",
			zap.String("event_id", ev.ID),
			zap.String("version_id", ev.VersionID),
			zap.String("template_id", ev.TemplateID),
			zap.String("status_from", string(ev.PreviousStatus)),
			zap.String("status_to", string(ev.NewStatus)),
			zap.Error(err))
		return
	}
	e.metrics.Notification(metrics.OutcomeSuccess)
}

// templateOf resolves the template owning versionID.
func (e *Engine) templateOf(ctx context.Context, versionID string) (string, error) {
	v, err := e.store.Versions().Get(ctx, versionID)
	if err != nil {
		return "", err
	}
	return v.TemplateID, nil
}

// instrument opens a span for op and returns the function that closes it.
//
//	ctx, span, done := e.instrument(ctx, "transition")
//	defer func() { done(err) }()
func (e *Engine) instrument(ctx context.Context, op string, opts ...observability.SpanOption) (context.Context, *observability.Span, func(error)) {
	start := time.Now()
	ctx, span := e.tracer.StartSpan(ctx, observability.SpanLifecyclePrefix+op, opts...)
	return ctx, span, func(err error) {
		outcome := outcomeOf(err)
		if err != nil {
			span.RecordError(err)
			span.SetAttribute(observability.AttrErrorType, outcome)
		} else {
			span.Status = observability.Status{Code: observability.StatusOK}
		}
		e.tracer.EndSpan(span)
		e.metrics.ObserveOperation(op, outcome, time.Since(start))
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, prompts.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, prompts.ErrAlreadyExists):
		return metrics.OutcomeConflict
	case errors.Is(err, prompts.ErrValidation):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}

// appendAudit writes one audit entry for v.
func (e *Engine) appendAudit(ctx context.Context, tx prompts.Tx, w *work, entry prompts.AuditEntry) error {
	entry.ID = e.newID()
	entry.PerformedBy = w.actor
	entry.PerformedAt = e.now()
	if err := tx.Audit().Append(ctx, &entry); err != nil {
		return err
	}
	return nil
}

// queueEvent records a status change to publish after commit.
func (e *Engine) queueEvent(w *work, v *prompts.Version, from prompts.Status) {
	w.events = append(w.events, prompts.StatusChangeEvent{
		ID:             e.newID(),
		VersionID:      v.ID,
		TemplateID:     v.TemplateID,
		VersionNumber:  v.Number,
		PreviousStatus: from,
		NewStatus:      v.Status,
		Actor:          w.actor,
		OccurredAt:     v.UpdatedAt,
	})
}
