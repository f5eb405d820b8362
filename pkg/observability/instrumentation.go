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
package observability

// Span names. Engine operations use SpanLifecyclePrefix followed by the
// operation name, e.g. "lifecycle.transition".
const (
	SpanLifecyclePrefix = "lifecycle."

	// SQLite store spans
	SpanSQLiteOpen        = "sqlite.open"
	SpanSQLiteInTx        = "sqlite.in_tx"
	SpanSQLiteBackup      = "sqlite.backup"
	SpanSQLiteMigrateUp   = "sqlite.migrator.migrate_up"
	SpanSQLiteMigrateDown = "sqlite.migrator.migrate_down"

	// PostgreSQL store spans
	SpanPostgresOpen        = "postgres.open"
	SpanPostgresInTx        = "postgres.in_tx"
	SpanPostgresMigrateUp   = "postgres.migrator.migrate_up"
	SpanPostgresMigrateDown = "postgres.migrator.migrate_down"
)

// Standard attribute names for consistency.
// Use these constants for span and event attributes.
const (
	// Error attributes
	AttrErrorType    = "error.type"
	AttrErrorMessage = "error.message"

	// Prompt version attributes
	AttrTemplateID      = "prompt.template_id"
	AttrVersionID       = "prompt.version_id"
	AttrVersionNumber   = "prompt.version_number"
	AttrStatusFrom      = "prompt.status.from"
	AttrStatusTo        = "prompt.status.to"
	AttrDemotedCount    = "prompt.publish.demoted" // versions moved PUBLISHED -> DEPRECATED
	AttrPreserveHistory = "prompt.rollback.preserve_history"
	AttrLineageDepth    = "prompt.lineage.depth"

	// Storage attributes
	AttrStoreBackend = "store.backend"
)
