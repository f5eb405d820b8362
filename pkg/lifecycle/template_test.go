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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/promptver/pkg/prompts"
)

func TestCreateTemplate(t *testing.T) {
	f := newFixture(t)
	ctx := WithActor(context.Background(), "dana")

	tpl, err := f.engine.CreateTemplate(ctx, TemplateRequest{Name: "classifier", Description: "Routes tickets"})
	require.NoError(t, err)
	assert.NotEmpty(t, tpl.ID)
	assert.Equal(t, "dana", tpl.CreatedBy)

	got, err := f.engine.Template(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "classifier", got.Name)
	assert.Equal(t, "Routes tickets", got.Description)

	all, err := f.engine.Templates(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.engine.CreateTemplate(ctx, TemplateRequest{Name: "  "})
	assert.ErrorIs(t, err, prompts.ErrValidation)
}

func TestDeleteTemplate(t *testing.T) {
	cache := prompts.NewMemoryCache(1 << 40)
	f := newFixture(t, WithCache(cache))
	ctx := context.Background()

	a := f.publish(t, f.create(t, "1.0.0"))
	b := f.create(t, "1.1.0")

	// Warm the cache so the delete has entries to invalidate.
	_, err := f.engine.Get(ctx, a.ID)
	require.NoError(t, err)

	removed, err := f.engine.DeleteTemplate(ctx, f.tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	for _, id := range []string{a.ID, b.ID} {
		_, err := f.engine.Get(ctx, id)
		assert.ErrorIs(t, err, prompts.ErrNotFound)
	}
	_, err = f.engine.Template(ctx, f.tpl.ID)
	assert.ErrorIs(t, err, prompts.ErrNotFound)

	trail, err := f.store.Audit().ListByVersionDesc(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, trail, 3)

	_, err = f.engine.DeleteTemplate(ctx, f.tpl.ID)
	assert.ErrorIs(t, err, prompts.ErrNotFound)
}
