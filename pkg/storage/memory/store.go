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
// Package memory provides an in-memory prompts.Store.
//
// Each unit of work runs against a private copy of the store state that
// replaces the shared state only when the unit of work succeeds, so a
// failed unit of work leaves nothing behind. Units of work are serialized.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/teradata-labs/promptver/pkg/prompts"
)

type versionRow struct {
	v   *prompts.Version
	seq uint64
}

type auditRow struct {
	e   *prompts.AuditEntry
	seq uint64
}

type state struct {
	templates map[string]*prompts.Template
	versions  map[string]versionRow
	audit     []auditRow
	seq       uint64
}

func newState() *state {
	return &state{
		templates: make(map[string]*prompts.Template),
		versions:  make(map[string]versionRow),
	}
}

// clone copies maps and slices. Rows are immutable once stored, so the
// copies share them.
func (s *state) clone() *state {
	c := &state{
		templates: make(map[string]*prompts.Template, len(s.templates)),
		versions:  make(map[string]versionRow, len(s.versions)),
		audit:     make([]auditRow, len(s.audit)),
		seq:       s.seq,
	}
	for k, v := range s.templates {
		c.templates[k] = v
	}
	for k, v := range s.versions {
		c.versions[k] = v
	}
	copy(c.audit, s.audit)
	return c
}

func (s *state) next() uint64 {
	s.seq++
	return s.seq
}

// byTemplate returns the versions of templateID in creation order.
func (s *state) byTemplate(templateID string, keep func(*prompts.Version) bool) []*prompts.Version {
	rows := make([]versionRow, 0)
	for _, r := range s.versions {
		if r.v.TemplateID == templateID && (keep == nil || keep(r.v)) {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.v.CreatedAt.Equal(b.v.CreatedAt) {
			return a.v.CreatedAt.Before(b.v.CreatedAt)
		}
		return a.seq < b.seq
	})
	out := make([]*prompts.Version, len(rows))
	for i, r := range rows {
		out[i] = r.v.Clone()
	}
	return out
}

// Store is an in-memory prompts.Store.
type Store struct {
	txMu sync.Mutex // serializes units of work

	mu sync.RWMutex
	st *state
}

// New creates an empty store.
func New() *Store {
	return &Store{st: newState()}
}

func (s *Store) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st
}

// InTx runs fn against a private copy of the state and publishes the copy
// when fn succeeds. The lock key is ignored; all units of work are
// serialized.
func (s *Store) InTx(ctx context.Context, _ string, fn func(ctx context.Context, tx prompts.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.snapshot().clone()
	tx := &txView{
		read:  func() *state { return working },
		write: func(apply func(*state) error) error { return apply(working) },
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.mu.Lock()
	s.st = working
	s.mu.Unlock()
	return nil
}

func (s *Store) view() *txView {
	return &txView{
		read: s.snapshot,
		write: func(apply func(*state) error) error {
			return s.InTx(context.Background(), "", func(_ context.Context, tx prompts.Tx) error {
				return tx.(*txView).write(apply)
			})
		},
	}
}

// Versions returns the version store outside any unit of work.
func (s *Store) Versions() prompts.VersionStore { return s.view().Versions() }

// Templates returns the template store outside any unit of work.
func (s *Store) Templates() prompts.TemplateStore { return s.view().Templates() }

// Audit returns the audit sink outside any unit of work.
func (s *Store) Audit() prompts.AuditSink { return s.view().Audit() }

// Name identifies the backend.
func (s *Store) Name() string { return "memory" }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

type txView struct {
	read  func() *state
	write func(apply func(*state) error) error
}

func (t *txView) Versions() prompts.VersionStore   { return versions{t} }
func (t *txView) Templates() prompts.TemplateStore { return templates{t} }
func (t *txView) Audit() prompts.AuditSink         { return audit{t} }

var (
	_ prompts.Store = (*Store)(nil)
	_ prompts.Tx    = (*txView)(nil)
)
