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
// Package notify delivers version status change events.
//
// Notifiers implement prompts.Notifier and compose: an Outbox retries what
// its inner notifier failed to deliver, a Breaker stops calling a failing
// transport, and Fanout sends to several notifiers at once.
//
// Example usage:
//
//	js, closeJS, err := notify.DialJetStream(ctx, notify.JetStreamConfig{URL: nats.DefaultURL})
//	outbox := notify.NewOutbox(notify.NewBreaker(js, notify.BreakerConfig{}), logger, recorder)
//	defer outbox.Stop()
//	if err := outbox.Start("@every 30s"); err != nil {
//	    return err
//	}
package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/teradata-labs/promptver/internal/csync"
	"github.com/teradata-labs/promptver/pkg/prompts"
)

// Recorder keeps every event it is given. Useful in tests.
type Recorder struct {
	events *csync.Slice[prompts.StatusChangeEvent]

	mu  sync.Mutex
	err error
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{events: csync.NewSlice[prompts.StatusChangeEvent]()}
}

// Publish records ev, or returns the error set with FailWith.
func (r *Recorder) Publish(_ context.Context, ev prompts.StatusChangeEvent) error {
	r.mu.Lock()
	err := r.err
	r.mu.Unlock()
	if err != nil {
		return err
	}
	r.events.Append(ev)
	return nil
}

// FailWith makes later Publish calls fail with err. Nil restores delivery.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Events returns the recorded events in publish order.
func (r *Recorder) Events() []prompts.StatusChangeEvent {
	return r.events.Items()
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	return r.events.Len()
}

// Reset forgets all recorded events.
func (r *Recorder) Reset() {
	r.events.Clear()
}

// Fanout publishes every event to all notifiers and joins their errors.
type Fanout []prompts.Notifier

func (f Fanout) Publish(ctx context.Context, ev prompts.StatusChangeEvent) error {
	var errs []error
	for _, n := range f {
		if err := n.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ prompts.Notifier = (*Recorder)(nil)
	_ prompts.Notifier = Fanout(nil)
)
