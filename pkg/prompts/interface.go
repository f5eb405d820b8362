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
package prompts

import "context"

// VersionStore persists versions together with their parameters.
//
// Listings are ordered by creation time. Save inserts or updates and must
// reject a second version with the same template and number by returning
// an *AlreadyExistsError.
type VersionStore interface {
	// Get returns the version with id or a *NotFoundError.
	Get(ctx context.Context, id string) (*Version, error)

	// GetByTemplateAndNumber returns a *NotFoundError when no version of
	// templateID carries number.
	GetByTemplateAndNumber(ctx context.Context, templateID, number string) (*Version, error)

	ListByTemplate(ctx context.Context, templateID string, page Page) ([]*Version, error)
	ListByTemplateAndStatus(ctx context.Context, templateID string, status Status, page Page) ([]*Version, error)
	ExistsByID(ctx context.Context, id string) (bool, error)

	// Save writes v and replaces its full parameter set.
	Save(ctx context.Context, v *Version) error

	Delete(ctx context.Context, id string) error
}

// TemplateRegistry resolves templates.
type TemplateRegistry interface {
	ExistsByID(ctx context.Context, id string) (bool, error)
	Get(ctx context.Context, id string) (*Template, error)
}

// TemplateStore adds template administration to TemplateRegistry.
// Delete removes the template's versions and keeps their audit entries.
type TemplateStore interface {
	TemplateRegistry
	Save(ctx context.Context, t *Template) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Template, error)
}

// AuditSink is the append-only audit log.
type AuditSink interface {
	Append(ctx context.Context, entry *AuditEntry) error

	// ListByVersionDesc returns the entries of versionID, newest first.
	ListByVersionDesc(ctx context.Context, versionID string) ([]*AuditEntry, error)
}

// Notifier publishes status change events. Delivery is at-least-once; the
// event ID identifies duplicates.
type Notifier interface {
	Publish(ctx context.Context, event StatusChangeEvent) error
}

// Tx exposes the collaborators of one unit of work.
type Tx interface {
	Versions() VersionStore
	Templates() TemplateStore
	Audit() AuditSink
}

// Store is a transactional backing store. Its embedded Tx reads and writes
// outside any unit of work.
type Store interface {
	Tx

	// InTx runs fn in one atomic unit of work. Units of work sharing a
	// lockKey are serialized. Every write made through tx is committed when
	// fn returns nil and discarded otherwise.
	InTx(ctx context.Context, lockKey string, fn func(ctx context.Context, tx Tx) error) error

	// Name identifies the backend in logs and spans.
	Name() string

	Close() error
}
