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

	"go.uber.org/zap"

	"github.com/teradata-labs/promptver/internal/pubsub"
	"github.com/teradata-labs/promptver/pkg/prompts"
)

// Broker delivers events to in-process subscribers. Slow subscribers miss
// events instead of blocking the publisher.
type Broker struct {
	broker *pubsub.Broker[prompts.StatusChangeEvent]
	logger *zap.Logger
}

// NewBroker creates a broker with no subscribers.
func NewBroker(logger *zap.Logger) *Broker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{
		broker: pubsub.NewBroker[prompts.StatusChangeEvent](),
		logger: logger.With(zap.String("component", "notify-broker")),
	}
}

// Subscribe returns a channel of events that closes when ctx is done or the
// broker shuts down.
func (b *Broker) Subscribe(ctx context.Context, buffer int) <-chan pubsub.Event[prompts.StatusChangeEvent] {
	return b.broker.Subscribe(ctx, buffer)
}

// Publish hands ev to every subscriber.
func (b *Broker) Publish(_ context.Context, ev prompts.StatusChangeEvent) error {
	if dropped := b.broker.Publish(pubsub.NewUpdatedEvent(ev)); dropped > 0 {
		b.logger.Warn("Status change dropped for slow subscribers",
			zap.String("event_id", ev.ID),
			zap.String("version_id", ev.VersionID),
			zap.Int("dropped", dropped))
	}
	return nil
}

// Shutdown closes every subscription.
func (b *Broker) Shutdown() {
	b.broker.Shutdown()
}

var _ prompts.Notifier = (*Broker)(nil)
