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

	"github.com/teradata-labs/promptver/pkg/prompts"
)

var errInjected = errors.New("injected store failure")

// faultyStore fails the audit append that follows failAfter successful
// ones, inside units of work only.
type faultyStore struct {
	prompts.Store

	mu        sync.Mutex
	failAfter int
	appends   int
}

func (s *faultyStore) InTx(ctx context.Context, key string, fn func(ctx context.Context, tx prompts.Tx) error) error {
	return s.Store.InTx(ctx, key, func(ctx context.Context, tx prompts.Tx) error {
		return fn(ctx, faultyTx{Tx: tx, s: s})
	})
}

type faultyTx struct {
	prompts.Tx
	s *faultyStore
}

func (t faultyTx) Audit() prompts.AuditSink {
	return faultyAudit{AuditSink: t.Tx.Audit(), s: t.s}
}

type faultyAudit struct {
	prompts.AuditSink
	s *faultyStore
}

func (a faultyAudit) Append(ctx context.Context, e *prompts.AuditEntry) error {
	a.s.mu.Lock()
	a.s.appends++
	fail := a.s.appends > a.s.failAfter
	a.s.mu.Unlock()
	if fail {
		return errInjected
	}
	return a.AuditSink.Append(ctx, e)
}

// blindStore hides one version number from GetByTemplateAndNumber inside
// units of work.
type blindStore struct {
	prompts.Store
	hideNumber string
}

func (s *blindStore) InTx(ctx context.Context, key string, fn func(ctx context.Context, tx prompts.Tx) error) error {
	return s.Store.InTx(ctx, key, func(ctx context.Context, tx prompts.Tx) error {
		return fn(ctx, blindTx{Tx: tx, hide: s.hideNumber})
	})
}

type blindTx struct {
	prompts.Tx
	hide string
}

func (t blindTx) Versions() prompts.VersionStore {
	return blindVersions{VersionStore: t.Tx.Versions(), hide: t.hide}
}

type blindVersions struct {
	prompts.VersionStore
	hide string
}

func (v blindVersions) GetByTemplateAndNumber(ctx context.Context, templateID, number string) (*prompts.Version, error) {
	if number == v.hide {
		return nil, prompts.NewNotFound("Version", templateID+"/"+number)
	}
	return v.VersionStore.GetByTemplateAndNumber(ctx, templateID, number)
}

// stallingStore blocks the first Versions().Get issued after arm until
// release is closed. The row is read before blocking.
type stallingStore struct {
	prompts.Store

	mu      sync.Mutex
	armed   bool
	loaded  chan struct{}
	release chan struct{}
}

func newStallingStore(inner prompts.Store) *stallingStore {
	return &stallingStore{
		Store:   inner,
		loaded:  make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (s *stallingStore) arm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = true
}

func (s *stallingStore) take() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	taken := s.armed
	s.armed = false
	return taken
}

func (s *stallingStore) Versions() prompts.VersionStore {
	return stallingVersions{VersionStore: s.Store.Versions(), s: s}
}

type stallingVersions struct {
	prompts.VersionStore
	s *stallingStore
}

func (v stallingVersions) Get(ctx context.Context, id string) (*prompts.Version, error) {
	got, err := v.VersionStore.Get(ctx, id)
	if v.s.take() {
		close(v.s.loaded)
		<-v.s.release
	}
	return got, err
}

// brokenCache loads through and fails invalidations once broken is set.
type brokenCache struct {
	prompts.NoCache
	broken bool
}

func (c *brokenCache) Invalidate(context.Context, ...string) error {
	if c.broken {
		return errInjected
	}
	return nil
}
