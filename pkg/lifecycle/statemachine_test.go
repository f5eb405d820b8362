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
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/promptver/pkg/metrics"
	"github.com/teradata-labs/promptver/pkg/observability"
	"github.com/teradata-labs/promptver/pkg/prompts"
	"github.com/teradata-labs/promptver/pkg/storage/memory"
)

func TestCanTransition_Table(t *testing.T) {
	allowed := map[[2]prompts.Status]bool{
		{prompts.StatusDraft, prompts.StatusReview}:         true,
		{prompts.StatusReview, prompts.StatusApproved}:      true,
		{prompts.StatusReview, prompts.StatusPublished}:     true,
		{prompts.StatusApproved, prompts.StatusPublished}:   true,
		{prompts.StatusPublished, prompts.StatusDeprecated}: true,
		{prompts.StatusDeprecated, prompts.StatusArchived}:  true,
	}

	for _, from := range prompts.Statuses {
		for _, to := range prompts.Statuses {
			want := allowed[[2]prompts.Status{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	assert.Empty(t, AllowedTransitions(prompts.StatusArchived))
	assert.Equal(t, []prompts.Status{prompts.StatusApproved, prompts.StatusPublished},
		AllowedTransitions(prompts.StatusReview))
	assert.False(t, CanTransition("UNKNOWN", prompts.StatusDraft))
}

func TestTransition_DraftToReview(t *testing.T) {
	f := newFixture(t)
	v := f.create(t, "1.0.0")

	got, err := f.engine.Transition(WithActor(context.Background(), "bob"), v.ID, prompts.StatusReview)
	require.NoError(t, err)
	assert.Equal(t, prompts.StatusReview, got.Status)
	assert.True(t, got.UpdatedAt.After(v.UpdatedAt))

	entries := f.audit(t, v.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, prompts.ActionStatusChanged, entries[0].Action)
	assert.Equal(t, "Status changed", entries[0].Details)
	assert.Equal(t, prompts.StatusDraft, entries[0].PreviousStatus)
	assert.Equal(t, prompts.StatusReview, entries[0].NewStatus)
	assert.Equal(t, "bob", entries[0].PerformedBy)

	events := f.notes.Events()
	require.Len(t, events, 1)
	assert.Equal(t, v.ID, events[0].VersionID)
	assert.Equal(t, f.tpl.ID, events[0].TemplateID)
	assert.Equal(t, prompts.StatusDraft, events[0].PreviousStatus)
	assert.Equal(t, prompts.StatusReview, events[0].NewStatus)
	assert.Equal(t, "bob", events[0].Actor)
	assert.NotEmpty(t, events[0].ID)
}

func TestTransition_Rejected(t *testing.T) {
	f := newFixture(t)
	v := f.create(t, "1.0.0")

	_, err := f.engine.Transition(context.Background(), v.ID, prompts.StatusArchived)
	require.ErrorIs(t, err, prompts.ErrValidation)
	assert.Equal(t, "Cannot transition from DRAFT to ARCHIVED", err.Error())

	assert.Equal(t, prompts.StatusDraft, f.get(t, v.ID).Status)
	assert.Len(t, f.audit(t, v.ID), 1)
	assert.Zero(t, f.notes.Len())

	_, err = f.engine.Transition(context.Background(), "missing", prompts.StatusReview)
	assert.ErrorIs(t, err, prompts.ErrNotFound)
}

func TestTransition_ArchivedIsTerminal(t *testing.T) {
	f := newFixture(t)
	v := f.publish(t, f.create(t, "1.0.0"))
	v = f.walk(t, v, prompts.StatusDeprecated, prompts.StatusArchived)

	for _, s := range prompts.Statuses {
		_, err := f.engine.Transition(context.Background(), v.ID, s)
		assert.ErrorIs(t, err, prompts.ErrValidation, s)
	}
}

func TestTransition_ApprovedPath(t *testing.T) {
	f := newFixture(t)
	v := f.walk(t, f.create(t, "1.0.0"), prompts.StatusReview, prompts.StatusApproved, prompts.StatusPublished)
	assert.Equal(t, prompts.StatusPublished, v.Status)
}

func TestTransition_PublishCascade(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.publish(t, f.create(t, "1.0.0"))
	b := f.walk(t, f.create(t, "1.1.0"), prompts.StatusReview)

	auditBefore := len(f.audit(t, a.ID)) + len(f.audit(t, b.ID))
	f.notes.Reset()

	got, err := f.engine.Transition(ctx, b.ID, prompts.StatusPublished)
	require.NoError(t, err)
	assert.Equal(t, prompts.StatusPublished, got.Status)

	assert.Equal(t, prompts.StatusDeprecated, f.get(t, a.ID).Status)
	assert.Equal(t, prompts.StatusPublished, f.get(t, b.ID).Status)

	auditAfter := len(f.audit(t, a.ID)) + len(f.audit(t, b.ID))
	assert.Equal(t, 2, auditAfter-auditBefore)
	demotion := f.audit(t, a.ID)[0]
	assert.Equal(t, "Status changed due to new published version", demotion.Details)
	assert.Equal(t, prompts.StatusPublished, demotion.PreviousStatus)
	assert.Equal(t, prompts.StatusDeprecated, demotion.NewStatus)

	events := f.notes.Events()
	require.Len(t, events, 2)
	assert.Equal(t, a.ID, events[0].VersionID)
	assert.Equal(t, prompts.StatusDeprecated, events[0].NewStatus)
	assert.Equal(t, b.ID, events[1].VersionID)
	assert.Equal(t, prompts.StatusPublished, events[1].NewStatus)

	span := f.tracer.GetSpansByName("lifecycle.transition")
	require.NotEmpty(t, span)
	assert.Equal(t, 1, span[len(span)-1].Attributes[observability.AttrDemotedCount])
}

func TestTransition_PublishCascadeIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := &faultyStore{failAfter: 1 << 30}
	f := newFixture(t)
	store.Store = f.store
	f.engine = New(store, WithNotifier(f.notes))

	a := f.publish(t, f.create(t, "1.0.0"))
	b := f.walk(t, f.create(t, "1.1.0"), prompts.StatusReview)
	auditA, auditB := len(f.audit(t, a.ID)), len(f.audit(t, b.ID))
	f.notes.Reset()

	// The demotion audit succeeds, the promotion audit fails.
	store.mu.Lock()
	store.failAfter = store.appends + 1
	store.mu.Unlock()

	_, err := f.engine.Transition(ctx, b.ID, prompts.StatusPublished)
	require.ErrorIs(t, err, errInjected)

	assert.Equal(t, prompts.StatusPublished, f.get(t, a.ID).Status)
	assert.Equal(t, prompts.StatusReview, f.get(t, b.ID).Status)
	assert.Len(t, f.audit(t, a.ID), auditA)
	assert.Len(t, f.audit(t, b.ID), auditB)
	assert.Zero(t, f.notes.Len())
	assert.Len(t, f.published(t), 1)
}

func TestTransition_ConcurrentPublish(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.publish(t, f.create(t, "1.0.0"))

	candidates := make([]*prompts.Version, 6)
	for i := range candidates {
		candidates[i] = f.walk(t, f.create(t, fmt.Sprintf("2.%d.0", i)), prompts.StatusReview)
	}

	var wg sync.WaitGroup
	for _, c := range candidates {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.engine.Transition(ctx, id, prompts.StatusPublished)
			assert.NoError(t, err)
		}(c.ID)
	}
	wg.Wait()

	assert.Len(t, f.published(t), 1)
	deprecated, err := f.store.Versions().ListByTemplateAndStatus(ctx, f.tpl.ID, prompts.StatusDeprecated, prompts.All)
	require.NoError(t, err)
	assert.Len(t, deprecated, len(candidates))
}

func TestTransition_NotificationFailureDoesNotFail(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(metrics.Config{Registry: reg})
	f := newFixture(t, WithMetrics(recorder))
	v := f.create(t, "1.0.0")
	f.notes.FailWith(errInjected)

	got, err := f.engine.Transition(context.Background(), v.ID, prompts.StatusReview)
	require.NoError(t, err)
	assert.Equal(t, prompts.StatusReview, got.Status)
	assert.Equal(t, prompts.StatusReview, f.get(t, v.ID).Status)

	n, err := testutil.GatherAndCount(reg, "promptver_notifications_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTransition_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	cache := prompts.NewMemoryCache(1 << 40)
	f := newFixture(t, WithCache(cache))
	v := f.create(t, "1.0.0")

	got, err := f.engine.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, prompts.StatusDraft, got.Status)

	_, err = f.engine.Transition(ctx, v.ID, prompts.StatusReview)
	require.NoError(t, err)

	got, err = f.engine.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, prompts.StatusReview, got.Status)

	ok, err := f.engine.CanTransitionTo(ctx, v.ID, prompts.StatusPublished)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.engine.CanTransitionTo(ctx, v.ID, prompts.StatusDraft)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = f.engine.CanTransitionTo(ctx, "missing", prompts.StatusDraft)
	assert.ErrorIs(t, err, prompts.ErrNotFound)
}

func TestTransition_DiscardsFillRacingCommit(t *testing.T) {
	ctx := context.Background()
	store := newStallingStore(memory.New())
	f := newFixtureWithStore(t, store, WithCache(prompts.NewMemoryCache(1<<40)))
	v := f.create(t, "1.0.0")

	store.arm()
	read := make(chan *prompts.Version, 1)
	go func() {
		got, err := f.engine.Get(ctx, v.ID)
		assert.NoError(t, err)
		read <- got
	}()

	<-store.loaded
	_, err := f.engine.Transition(ctx, v.ID, prompts.StatusReview)
	require.NoError(t, err)
	close(store.release)
	assert.Equal(t, prompts.StatusDraft, (<-read).Status)

	got, err := f.engine.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, prompts.StatusReview, got.Status)

	ok, err := f.engine.CanTransitionTo(ctx, v.ID, prompts.StatusReview)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTransition_FailedInvalidationIsReturned(t *testing.T) {
	ctx := context.Background()
	cache := &brokenCache{}
	f := newFixture(t, WithCache(cache))
	v := f.create(t, "1.0.0")
	cache.broken = true

	_, err := f.engine.Transition(ctx, v.ID, prompts.StatusReview)
	require.ErrorIs(t, err, prompts.ErrCacheInvalidation)
	assert.ErrorIs(t, err, errInjected)

	assert.Equal(t, prompts.StatusReview, f.get(t, v.ID).Status)
	assert.Len(t, f.notes.Events(), 1)
}

func TestEngine_RecordsOperationMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(metrics.Config{Registry: reg})
	f := newFixture(t, WithMetrics(recorder))
	v := f.create(t, "1.0.0")
	_, _ = f.engine.Transition(context.Background(), v.ID, prompts.StatusArchived)

	families, err := reg.Gather()
	require.NoError(t, err)
	outcomes := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "promptver_operations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			key := ""
			for _, l := range m.GetLabel() {
				key += l.GetValue() + "/"
			}
			outcomes[key] = m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, outcomes["create/success/"])
	assert.Equal(t, 1.0, outcomes["transition/invalid/"])
}
