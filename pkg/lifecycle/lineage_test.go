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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/promptver/pkg/prompts"
)

func strPtr(s string) *string { return &s }

func TestCreateBranch_InheritsSource(t *testing.T) {
	ctx := WithActor(context.Background(), "carol")
	f := newFixture(t)
	source := f.publish(t, f.create(t, "1.0.0",
		prompts.Parameter{Name: "text", Type: prompts.ParameterString, Required: true}))

	branch, err := f.engine.CreateBranch(ctx, source.ID, BranchRequest{VersionNumber: "1.1.0"})
	require.NoError(t, err)

	assert.Equal(t, prompts.StatusDraft, branch.Status)
	assert.Equal(t, source.ID, branch.ParentID)
	assert.Equal(t, source.TemplateID, branch.TemplateID)
	assert.Equal(t, source.Content, branch.Content)
	assert.Equal(t, "carol", branch.CreatedBy)
	assert.Equal(t, source.Parameters, branch.Parameters)
	require.Len(t, branch.Parameters, 1)
	assert.NotSame(t, &source.Parameters[0], &branch.Parameters[0])

	entries := f.audit(t, branch.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, prompts.ActionBranched, entries[0].Action)
	assert.Equal(t, "Created as branch from version 1.0.0", entries[0].Details)
	assert.Equal(t, source.ID, entries[0].ReferenceVersionID)

	// The source is untouched.
	assert.Equal(t, prompts.StatusPublished, f.get(t, source.ID).Status)
}

func TestCreateBranch_Overrides(t *testing.T) {
	f := newFixture(t)
	source := f.create(t, "1.0.0", prompts.Parameter{Name: "text", Type: prompts.ParameterString})

	branch, err := f.engine.CreateBranch(context.Background(), source.ID, BranchRequest{
		VersionNumber: "2.0.0",
		Content:       strPtr("Translate {{text}} to {{lang}}"),
		SystemPrompt:  strPtr("You are a translator."),
		Parameters: []prompts.Parameter{
			{Name: "text", Type: prompts.ParameterString, Required: true},
			{Name: "lang", Type: prompts.ParameterString, DefaultValue: "fr"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Translate {{text}} to {{lang}}", branch.Content)
	assert.Equal(t, "You are a translator.", branch.SystemPrompt)
	assert.Len(t, branch.Parameters, 2)

	// An explicit empty list clears the parameters.
	bare, err := f.engine.CreateBranch(context.Background(), source.ID, BranchRequest{
		VersionNumber: "3.0.0",
		Parameters:    []prompts.Parameter{},
	})
	require.NoError(t, err)
	assert.Empty(t, bare.Parameters)
}

func TestCreateBranch_Errors(t *testing.T) {
	f := newFixture(t)
	source := f.create(t, "1.0.0")

	tests := []struct {
		name     string
		sourceID string
		req      BranchRequest
		target   error
		field    string
	}{
		{
			name:     "missing source",
			sourceID: "missing",
			req:      BranchRequest{VersionNumber: "bad"},
			target:   prompts.ErrNotFound,
		},
		{
			name:     "invalid number",
			sourceID: source.ID,
			req:      BranchRequest{VersionNumber: "1.1"},
			target:   prompts.ErrValidation,
			field:    FieldVersionNumber,
		},
		{
			name:     "empty content",
			sourceID: source.ID,
			req:      BranchRequest{VersionNumber: "1.1.0", Content: strPtr("  ")},
			target:   prompts.ErrValidation,
			field:    FieldContent,
		},
		{
			name:     "duplicate number",
			sourceID: source.ID,
			req:      BranchRequest{VersionNumber: "1.0.0"},
			target:   prompts.ErrAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.CreateBranch(context.Background(), tt.sourceID, tt.req)
			require.ErrorIs(t, err, tt.target)
			if tt.field != "" {
				assert.Contains(t, validationFields(t, err), tt.field)
			}
		})
	}

	_, err := f.engine.CreateBranch(context.Background(), "missing", BranchRequest{VersionNumber: "1.1.0"})
	assert.EqualError(t, err, "Source version not found with id: missing")

	versions, err := f.engine.Versions(context.Background(), f.tpl.ID, prompts.All)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func TestLineage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	root := f.create(t, "1.0.0")
	child, err := f.engine.CreateBranch(ctx, root.ID, BranchRequest{VersionNumber: "1.1.0"})
	require.NoError(t, err)
	grandchild, err := f.engine.CreateBranch(ctx, child.ID, BranchRequest{VersionNumber: "1.2.0"})
	require.NoError(t, err)

	chain, err := f.engine.Lineage(ctx, grandchild.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{grandchild.ID, child.ID, root.ID}, ids(chain))

	chain, err = f.engine.Lineage(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{root.ID}, ids(chain))

	_, err = f.engine.Lineage(ctx, "missing")
	assert.ErrorIs(t, err, prompts.ErrNotFound)

	spans := f.tracer.GetSpansByName("lifecycle.lineage")
	require.NotEmpty(t, spans)
}

func TestLineage_StopsOnCycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.create(t, "1.0.0")
	b, err := f.engine.CreateBranch(ctx, a.ID, BranchRequest{VersionNumber: "1.1.0"})
	require.NoError(t, err)

	stored := f.get(t, a.ID)
	stored.ParentID = b.ID
	require.NoError(t, f.store.Versions().Save(ctx, stored))

	chain, err := f.engine.Lineage(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, ids(chain))
}

func TestLineage_StopsAtDanglingParent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.create(t, "1.0.0")
	b, err := f.engine.CreateBranch(ctx, a.ID, BranchRequest{VersionNumber: "1.1.0"})
	require.NoError(t, err)
	require.NoError(t, f.store.Versions().Delete(ctx, a.ID))

	chain, err := f.engine.Lineage(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids(chain))
}

func TestLineage_MaxDepth(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, WithMaxLineageDepth(3))
	v := f.create(t, "1.0.0")
	for _, n := range []string{"1.1.0", "1.2.0", "1.3.0", "1.4.0"} {
		var err error
		v, err = f.engine.CreateBranch(ctx, v.ID, BranchRequest{VersionNumber: n})
		require.NoError(t, err)
	}

	chain, err := f.engine.Lineage(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Equal(t, "1.4.0", chain[0].Number)
	assert.Equal(t, "1.2.0", chain[2].Number)
}

func TestLineage_DefaultMaxDepth(t *testing.T) {
	ctx := context.Background()
	for _, tt := range []struct {
		name string
		opts []Option
	}{
		{"no option", nil},
		{"non-positive option keeps default", []Option{WithMaxLineageDepth(0)}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.opts...)
			v := f.create(t, "1.0.0")
			for minor := 1; minor <= DefaultMaxLineageDepth+4; minor++ {
				var err error
				v, err = f.engine.CreateBranch(ctx, v.ID, BranchRequest{VersionNumber: fmt.Sprintf("1.%d.0", minor)})
				require.NoError(t, err)
			}

			chain, err := f.engine.Lineage(ctx, v.ID)
			require.NoError(t, err)
			require.Len(t, chain, DefaultMaxLineageDepth)
			assert.Equal(t, "1.104.0", chain[0].Number)
			assert.Equal(t, "1.5.0", chain[DefaultMaxLineageDepth-1].Number)
		})
	}
}

func ids(vs []*prompts.Version) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.ID
	}
	return out
}
