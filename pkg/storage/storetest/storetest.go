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
// Package storetest is a conformance suite for prompts.Store implementations.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/promptver/pkg/prompts"
)

// Factory returns an empty store. The suite closes it.
type Factory func(t *testing.T) prompts.Store

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Run runs the suite against stores made by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s prompts.Store)
	}{
		{"Templates", testTemplates},
		{"SaveAndGet", testSaveAndGet},
		{"UpdateReplacesParameters", testUpdateReplacesParameters},
		{"NumberUniqueWithinTemplate", testNumberUnique},
		{"ParameterNamesUnique", testParameterNamesUnique},
		{"ListOrderAndPaging", testListOrderAndPaging},
		{"ListByStatus", testListByStatus},
		{"DeleteVersion", testDeleteVersion},
		{"DeleteTemplateKeepsAudit", testDeleteTemplateKeepsAudit},
		{"AuditOrder", testAuditOrder},
		{"TxCommit", testTxCommit},
		{"TxRollback", testTxRollback},
		{"TxSerialized", testTxSerialized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			defer func() { assert.NoError(t, s.Close()) }()
			tt.fn(t, s)
		})
	}
}

// Template saves a template with a fresh id.
func Template(t *testing.T, s prompts.Store) *prompts.Template {
	t.Helper()
	tpl := &prompts.Template{
		ID:        uuid.NewString(),
		Name:      "summarizer",
		CreatedBy: "alice",
		CreatedAt: base,
	}
	require.NoError(t, s.Templates().Save(context.Background(), tpl))
	return tpl
}

// Version builds an unsaved DRAFT version of templateID.
func Version(templateID, number string, created time.Time, params ...prompts.Parameter) *prompts.Version {
	return &prompts.Version{
		ID:         uuid.NewString(),
		TemplateID: templateID,
		Number:     number,
		Content:    "Summarize: {{text}} (" + number + ")",
		Status:     prompts.StatusDraft,
		CreatedBy:  "alice",
		CreatedAt:  created,
		UpdatedAt:  created,
		Parameters: params,
	}
}

// AssertVersion compares versions field by field, timestamps by instant.
func AssertVersion(t *testing.T, want, got *prompts.Version) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.TemplateID, got.TemplateID)
	assert.Equal(t, want.Number, got.Number)
	assert.Equal(t, want.Content, got.Content)
	assert.Equal(t, want.SystemPrompt, got.SystemPrompt)
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.CreatedBy, got.CreatedBy)
	assert.Equal(t, want.ParentID, got.ParentID)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", want.CreatedAt, got.CreatedAt)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updated_at %v != %v", want.UpdatedAt, got.UpdatedAt)
	if len(want.Parameters) == 0 {
		assert.Empty(t, got.Parameters)
	} else {
		assert.Equal(t, want.Parameters, got.Parameters)
	}
}

func ids(vs []*prompts.Version) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.ID
	}
	return out
}

func testTemplates(t *testing.T, s prompts.Store) {
	ctx := context.Background()
	tpl := Template(t, s)

	ok, err := s.Templates().ExistsByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.Templates().Get(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tpl.Name, got.Name)
	assert.True(t, tpl.CreatedAt.Equal(got.CreatedAt))

	ok, err = s.Templates().ExistsByID(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Templates().Get(ctx, "missing")
	assert.True(t, errors.Is(err, prompts.ErrNotFound))

	list, err := s.Templates().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, tpl.ID, list[0].ID)
}

func testSaveAndGet(t *testing.T, s prompts.Store) {
	ctx := context.Background()
	tpl := Template(t, s)

	parent := Version(tpl.ID, "1.0.0", base)
	require.NoError(t, s.Versions().Save(ctx, parent))

	v := Version(tpl.ID, "1.1.0", base.Add(time.Second),
		prompts.Parameter{Name: "text", Type: prompts.ParameterString, Required: true, Description: "input"},
		prompts.Parameter{Name: "limit", Type: prompts.ParameterNumber, DefaultValue: "100", ValidationPattern: `^\d+$`},
		prompts.Parameter{Name: "audience", Type: prompts.ParameterString},
	)
	v.ParentID = parent.ID
	v.SystemPrompt = "You are concise."
	require.NoError(t, s.Versions().Save(ctx, v))

	got, err := s.Versions().Get(ctx, v.ID)
	require.NoError(t, err)
	AssertVersion(t, v, got)

	got, err = s.Versions().GetByTemplateAndNumber(ctx, tpl.ID, "1.1.0")
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.ID)

	_, err = s.Versions().GetByTemplateAndNumber(ctx, tpl.ID, "9.9.9")
	assert.True(t, errors.Is(err, prompts.ErrNotFound))

	_, err = s.Versions().Get(ctx, "missing")
	assert.True(t, errors.Is(err, prompts.ErrNotFound))

	ok, err := s.Versions().ExistsByID(ctx, v.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func testUpdateReplacesParameters(t *testing.T, s prompts.Store) {
	ctx := context.Background()
	tpl := Template(t, s)

	v := Version(tpl.ID, "1.0.0", base,
		prompts.Parameter{Name: "a", Type: prompts.ParameterString},
		prompts.Parameter{Name: "b", Type: prompts.ParameterString})
	require.NoError(t, s.Versions().Save(ctx, v))

	v.Content = "changed"
	v.Status = prompts.StatusReview
	v.UpdatedAt = base.Add(time.Minute)
	v.Parameters = []prompts.Parameter{{Name: "c", Type: prompts.ParameterBoolean, Required: true}}
	require.NoError(t, s.Versions().Save(ctx, v))

	got, err := s.Versions().Get(ctx, v.ID)
	require.NoError(t, err)
	AssertVersion(t, v, got)

	all, err := s.Versions().ListByTemplate(ctx, tpl.ID, prompts.All)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testNumberUnique(t *testing.T, s prompts.Store) {
	ctx := context.Background()
	tpl := Template(t, s)
	other := Template(t, s)

	require.NoError(t, s.Versions().Save(ctx, Version(tpl.ID, "1.0.0", base)))
	require.NoError(t, s.Versions().Save(ctx, Version(other.ID, "1.0.0", base)))

	err := s.Versions().Save(ctx, Version(tpl.ID, "1.0.0", base.Add(time.Second)))
	require.Error(t, err)
	var exists *prompts.AlreadyExistsError
	require.True(t, errors.As(err, &exists), "got %v", err)
	assert.Equal(t, "1.0.0", exists.VersionNumber)
	assert.True(t, errors.Is(err, prompts.ErrValidation))
}

func testParameterNamesUnique(t *testing.T, s prompts.Store) {
	ctx := context.Background()
	tpl := Template(t, s)

	v := Version(tpl.ID, "1.0.0", base,
		prompts.Parameter{Name: "dup", Type: prompts.ParameterString},
		prompts.Parameter{Name: "dup", Type: prompts.ParameterNumber})
	err := s.Versions().Save(ctx, v)
	require.Error(t, err)
	assert.True(t, errors.Is(err, prompts.ErrValidation), "got %v", err)

	ok, err := s.Versions().ExistsByID(ctx, v.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testListOrderAndPaging(t *testing.T, s prompts.Store) {
	ctx := context.Background()
	tpl := Template(t, s)

	// Saved out of creation order; the last two share a timestamp.
	v3 := Version(tpl.ID, "1.2.0", base.Add(2*time.Second))
	v1 := Version(tpl.ID, "1.0.0", base)
	v2 := Version(tpl.ID, "1.1.0", base.Add(time.Second))
	v4 := Version(tpl.ID, "1.3.0", base.Add(2*time.Second))
	for _, v := range []*prompts.Version{v3, v1, v2, v4} {
		require.NoError(t, s.Versions().Save(ctx, v))
	}

	all, err := s.Versions().ListByTemplate(ctx, tpl.ID, prompts.All)
	require.NoError(t, err)
	assert.Equal(t, []string{v1.ID, v2.ID, v3.ID, v4.ID}, ids(all))

	desc, err := s.Versions().ListByTemplate(ctx, tpl.ID, prompts.Page{Limit: 1, Descending: true})
	require.NoError(t, err)
	assert.Equal(t, []string{v4.ID}, ids(desc))

	window, err := s.Versions().ListByTemplate(ctx, tpl.ID, prompts.Page{Offset: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{v2.ID, v3.ID}, ids(window))

	none, err := s.Versions().ListByTemplate(ctx, "missing", prompts.All)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testListByStatus(t *testing.T, s prompts.Store) {
	ctx := context.Background()
	tpl := Template(t, s)

	draft := Version(tpl.ID, "1.0.0", base)
	pub1 := Version(tpl.ID, "1.1.0", base.Add(time.Second))
	pub1.Status = prompts.StatusPublished
	pub2 := Version(tpl.ID, "1.2.0", base.Add(2*time.Second))
	pub2.Status = prompts.StatusPublished
	for _, v := range []*prompts.Version{draft, pub1, pub2} {
		require.NoError(t, s.Versions().Save(ctx, v))
	}

	got, err := s.Versions().ListByTemplateAndStatus(ctx, tpl.ID, prompts.StatusPublished, prompts.All)
	require.NoError(t, err)
	assert.Equal(t, []string{pub1.ID, pub2.ID}, ids(got))

	got, err = s.Versions().ListByTemplateAndStatus(ctx, tpl.ID, prompts.StatusPublished, prompts.Page{Limit: 1, Descending: true})
	require.NoError(t, err)
	assert.Equal(t, []string{pub2.ID}, ids(got))

	got, err = s.Versions().ListByTemplateAndStatus(ctx, tpl.ID, prompts.StatusArchived, prompts.All)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testDeleteVersion(t *testing.T, s prompts.Store) {
	ctx := context.Background()
	tpl := Template(t, s)
	v := Version(tpl.ID, "1.0.0", base, prompts.Parameter{Name: "p", Type: prompts.ParameterString})
	require.NoError(t, s.Versions().Save(ctx, v))

	require.NoError(t, s.Versions().Delete(ctx, v.ID))
	ok, err := s.Versions().ExistsByID(ctx, v.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// The number is free again.
	require.NoError(t, s.Versions().Save(ctx, Version(tpl.ID, "1.0.0", base)))
}

func testDeleteTemplateKeepsAudit(t *testing.T, s prompts.Store) {
	ctx := context.Background()
	tpl := Template(t, s)
	v := Version(tpl.ID, "1.0.0", base)
	require.NoError(t, s.Versions().Save(ctx, v))
	require.NoError(t, s.Audit().Append(ctx, &prompts.AuditEntry{
		ID: uuid.NewString(), VersionID: v.ID, Action: prompts.ActionCreated,
		PerformedBy: "alice", PerformedAt: base, Details: "Version created",
	}))

	require.NoError(t, s.Templates().Delete(ctx, tpl.ID))

	ok, err := s.Templates().ExistsByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = s.Versions().ExistsByID(ctx, v.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	entries, err := s.Audit().ListByVersionDesc(ctx, v.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func testAuditOrder(t *testing.T, s prompts.Store) {
	ctx := context.Background()
	tpl := Template(t, s)
	v := Version(tpl.ID, "1.0.0", base)
	require.NoError(t, s.Versions().Save(ctx, v))

	first := &prompts.AuditEntry{
		ID: uuid.NewString(), VersionID: v.ID, Action: prompts.ActionCreated,
		PerformedBy: "alice", PerformedAt: base, Details: "Version created",
		NewStatus: prompts.StatusDraft,
	}
	second := &prompts.AuditEntry{
		ID: uuid.NewString(), VersionID: v.ID, Action: prompts.ActionStatusChanged,
		PerformedBy: "bob", PerformedAt: base.Add(time.Minute), Details: "Status changed",
		PreviousStatus: prompts.StatusDraft, NewStatus: prompts.StatusReview,
	}
	third := &prompts.AuditEntry{
		ID: uuid.NewString(), VersionID: v.ID, Action: prompts.ActionRollback,
		PerformedBy: "bob", PerformedAt: base.Add(time.Minute), Details: "Direct rollback to version 0.9.0",
		ReferenceVersionID: "ref",
	}
	for _, e := range []*prompts.AuditEntry{first, second, third} {
		require.NoError(t, s.Audit().Append(ctx, e))
	}
	require.NoError(t, s.Audit().Append(ctx, &prompts.AuditEntry{
		ID: uuid.NewString(), VersionID: "other", Action: prompts.ActionCreated, PerformedAt: base,
	}))

	entries, err := s.Audit().ListByVersionDesc(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, third.ID, entries[0].ID)
	assert.Equal(t, second.ID, entries[1].ID)
	assert.Equal(t, first.ID, entries[2].ID)

	got := entries[1]
	assert.Equal(t, prompts.ActionStatusChanged, got.Action)
	assert.Equal(t, "bob", got.PerformedBy)
	assert.Equal(t, prompts.StatusDraft, got.PreviousStatus)
	assert.Equal(t, prompts.StatusReview, got.NewStatus)
	assert.Equal(t, "ref", entries[0].ReferenceVersionID)
	assert.Empty(t, entries[2].PreviousStatus)
}

func testTxCommit(t *testing.T, s prompts.Store) {
	ctx := context.Background()
	tpl := Template(t, s)
	v := Version(tpl.ID, "1.0.0", base)

	err := s.InTx(ctx, tpl.ID, func(ctx context.Context, tx prompts.Tx) error {
		if err := tx.Versions().Save(ctx, v); err != nil {
			return err
		}
		// Writes are visible inside the unit of work.
		got, err := tx.Versions().Get(ctx, v.ID)
		if err != nil {
			return err
		}
		return tx.Audit().Append(ctx, &prompts.AuditEntry{
			ID: uuid.NewString(), VersionID: got.ID, Action: prompts.ActionCreated, PerformedAt: base,
		})
	})
	require.NoError(t, err)

	ok, err := s.Versions().ExistsByID(ctx, v.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	entries, err := s.Audit().ListByVersionDesc(ctx, v.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func testTxRollback(t *testing.T, s prompts.Store) {
	ctx := context.Background()
	tpl := Template(t, s)
	existing := Version(tpl.ID, "1.0.0", base, prompts.Parameter{Name: "p", Type: prompts.ParameterString})
	require.NoError(t, s.Versions().Save(ctx, existing))

	boom := errors.New("boom")
	v := Version(tpl.ID, "1.1.0", base.Add(time.Second))
	err := s.InTx(ctx, tpl.ID, func(ctx context.Context, tx prompts.Tx) error {
		if err := tx.Versions().Save(ctx, v); err != nil {
			return err
		}
		changed := existing.Clone()
		changed.Status = prompts.StatusPublished
		changed.Parameters = nil
		if err := tx.Versions().Save(ctx, changed); err != nil {
			return err
		}
		if err := tx.Audit().Append(ctx, &prompts.AuditEntry{
			ID: uuid.NewString(), VersionID: v.ID, Action: prompts.ActionCreated, PerformedAt: base,
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	ok, err := s.Versions().ExistsByID(ctx, v.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.Versions().Get(ctx, existing.ID)
	require.NoError(t, err)
	AssertVersion(t, existing, got)

	entries, err := s.Audit().ListByVersionDesc(ctx, v.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func testTxSerialized(t *testing.T, s prompts.Store) {
	ctx := context.Background()
	tpl := Template(t, s)
	v := Version(tpl.ID, "1.0.0", base)
	v.Content = ""
	require.NoError(t, s.Versions().Save(ctx, v))

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.InTx(ctx, tpl.ID, func(ctx context.Context, tx prompts.Tx) error {
				cur, err := tx.Versions().Get(ctx, v.ID)
				if err != nil {
					return err
				}
				cur.Content += fmt.Sprintf("[%d]", i)
				return tx.Versions().Save(ctx, cur)
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := s.Versions().Get(ctx, v.ID)
	require.NoError(t, err)
	for i := 0; i < workers; i++ {
		assert.Contains(t, got.Content, fmt.Sprintf("[%d]", i))
	}
}
