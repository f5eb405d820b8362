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
package notify

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/teradata-labs/promptver/internal/csync"
	"github.com/teradata-labs/promptver/pkg/metrics"
	"github.com/teradata-labs/promptver/pkg/prompts"
)

// DefaultRelaySchedule is the cron spec Start uses when given none.
const DefaultRelaySchedule = "@every 30s"

// Outbox keeps the events its inner notifier failed to deliver and
// redelivers them on a cron schedule. Redelivered events keep their id so
// at-least-once consumers can drop duplicates.
type Outbox struct {
	next    prompts.Notifier
	logger  *zap.Logger
	metrics *metrics.Recorder

	pending *csync.Map[string, prompts.StatusChangeEvent]
	relayMu sync.Mutex

	mu   sync.Mutex
	cron *cron.Cron
}

// NewOutbox wraps next.
func NewOutbox(next prompts.Notifier, logger *zap.Logger, recorder *metrics.Recorder) *Outbox {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Outbox{
		next:    next,
		logger:  logger.With(zap.String("component", "notify-outbox")),
		metrics: recorder,
		pending: csync.NewMap[string, prompts.StatusChangeEvent](),
	}
}

// Publish delivers ev, keeping it for redelivery when delivery fails.
// It never returns an error.
func (o *Outbox) Publish(ctx context.Context, ev prompts.StatusChangeEvent) error {
	if err := o.next.Publish(ctx, ev); err != nil {
		o.pending.Set(ev.ID, ev)
		o.metrics.OutboxPending(o.pending.Len())
		o.logger.Warn("Status change queued for redelivery",
			zap.String("event_id", ev.ID),
			zap.String("version_id", ev.VersionID),
			zap.Error(err))
	}
	return nil
}

// Pending returns the queued events, oldest first.
func (o *Outbox) Pending() []prompts.StatusChangeEvent {
	out := make([]prompts.StatusChangeEvent, 0, o.pending.Len())
	for _, ev := range o.pending.Seq2() {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.Before(out[j].OccurredAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Relay redelivers queued events in order and returns how many were
// delivered. Events that fail again stay queued.
func (o *Outbox) Relay(ctx context.Context) int {
	o.relayMu.Lock()
	defer o.relayMu.Unlock()

	delivered := 0
	for _, ev := range o.Pending() {
		if ctx.Err() != nil {
			break
		}
		if err := o.next.Publish(ctx, ev); err != nil {
			o.logger.Debug("Redelivery failed",
				zap.String("event_id", ev.ID),
				zap.Error(err))
			continue
		}
		o.pending.Delete(ev.ID)
		delivered++
	}

	o.metrics.OutboxPending(o.pending.Len())
	if delivered > 0 {
		o.logger.Info("Redelivered status changes",
			zap.Int("delivered", delivered),
			zap.Int("pending", o.pending.Len()))
	}
	return delivered
}

// Start schedules Relay with a cron spec such as "@every 30s".
func (o *Outbox) Start(spec string) error {
	if spec == "" {
		spec = DefaultRelaySchedule
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cron != nil {
		return fmt.Errorf("outbox relay already started")
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		o.Relay(ctx)
	}); err != nil {
		return fmt.Errorf("invalid relay schedule %q: %w", spec, err)
	}
	c.Start()
	o.cron = c
	return nil
}

// Stop stops the schedule and waits for a running relay to finish.
func (o *Outbox) Stop() {
	o.mu.Lock()
	c := o.cron
	o.cron = nil
	o.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

var _ prompts.Notifier = (*Outbox)(nil)
