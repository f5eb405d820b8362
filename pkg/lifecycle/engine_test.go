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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/promptver/pkg/notify"
	"github.com/teradata-labs/promptver/pkg/observability"
	"github.com/teradata-labs/promptver/pkg/prompts"
	"github.com/teradata-labs/promptver/pkg/storage/memory"
)

// fakeClock advances one second per reading.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	engine *Engine
	store  prompts.Store
	notes  *notify.Recorder
	tracer *observability.MockTracer
	tpl    *prompts.Template
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	return newFixtureWithStore(t, memory.New(), opts...)
}

func newFixtureWithStore(t *testing.T, store prompts.Store, opts ...Option) *fixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	f := &fixture{
		store:  store,
		notes:  notify.NewRecorder(),
		tracer: observability.NewMockTracer(),
	}
	base := []Option{
		WithNotifier(f.notes),
		WithTracer(f.tracer),
		WithClock(clock.Now),
	}
	f.engine = New(store, append(base, opts...)...)
	f.tpl = f.template(t)
	return f
}

func (f *fixture) template(t *testing.T) *prompts.Template {
	t.Helper()
	tpl := &prompts.Template{
		ID:        "tpl-" + f.engine.newID(),
		Name:      "summarizer",
		CreatedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.store.Templates().Save(context.Background(), tpl))
	return tpl
}

func (f *fixture) create(t *testing.T, number string, params ...prompts.Parameter) *prompts.Version {
	t.Helper()
	v, err := f.engine.Create(context.Background(), CreateRequest{
		TemplateID:    f.tpl.ID,
		VersionNumber: number,
		Content:       "Summarize {{text}} v" + number,
		Parameters:    params,
	})
	require.NoError(t, err)
	return v
}

// walk moves v through the given statuses.
func (f *fixture) walk(t *testing.T, v *prompts.Version, statuses ...prompts.Status) *prompts.Version {
	t.Helper()
	for _, s := range statuses {
		var err error
		v, err = f.engine.Transition(context.Background(), v.ID, s)
		require.NoError(t, err)
	}
	return v
}

func (f *fixture) publish(t *testing.T, v *prompts.Version) *prompts.Version {
	t.Helper()
	return f.walk(t, v, prompts.StatusReview, prompts.StatusPublished)
}

func (f *fixture) get(t *testing.T, id string) *prompts.Version {
	t.Helper()
	v, err := f.store.Versions().Get(context.Background(), id)
	require.NoError(t, err)
	return v
}

func (f *fixture) audit(t *testing.T, id string) []*prompts.AuditEntry {
	t.Helper()
	entries, err := f.store.Audit().ListByVersionDesc(context.Background(), id)
	require.NoError(t, err)
	return entries
}

func (f *fixture) published(t *testing.T) []*prompts.Version {
	t.Helper()
	vs, err := f.store.Versions().ListByTemplateAndStatus(context.Background(), f.tpl.ID, prompts.StatusPublished, prompts.All)
	require.NoError(t, err)
	return vs
}

func validationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *prompts.ValidationError
	require.True(t, errors.As(err, &ve), "expected validation error, got %v", err)
	return ve.Fields
}

func TestActor(t *testing.T) {
	assert.Equal(t, SystemActor, ActorFrom(context.Background()))
	assert.Equal(t, SystemActor, ActorFrom(WithActor(context.Background(), "")))
	assert.Equal(t, "alice", ActorFrom(WithActor(context.Background(), "alice")))
}

func TestIsValidAndParseVersionNumber(t *testing.T) {
	f := newFixture(t)
	assert.True(t, f.engine.IsValidVersionNumber("1.0.0"))
	assert.False(t, f.engine.IsValidVersionNumber("v1.0.0"))

	v, err := f.engine.ParseVersionNumber("2.3.4")
	require.NoError(t, err)
	assert.Equal(t, 3, v.Minor)

	_, err = f.engine.ParseVersionNumber("1.0")
	require.ErrorIs(t, err, prompts.ErrValidation)
	assert.Contains(t, validationFields(t, err), FieldVersionNumber)
}

func TestNextVersionNumber(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	next, err := f.engine.NextVersionNumber(ctx, f.tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", next)

	for _, n := range []string{"1.0.0", "1.2.0", "1.2.5"} {
		f.create(t, n)
	}
	next, err = f.engine.NextVersionNumber(ctx, f.tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "1.3.0", next)

	_, err = f.engine.NextVersionNumber(ctx, "missing")
	assert.ErrorIs(t, err, prompts.ErrNotFound)
}
