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

package sqlitedriver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Options configures Open.
type Options struct {
	// Path is the database file, or MemoryPath.
	Path string

	// EncryptionKey enables SQLCipher encryption when set. Requires a CGO
	// build.
	EncryptionKey string

	// BusyTimeout bounds how long a statement waits on a locked database.
	// Default: 5s.
	BusyTimeout time.Duration
}

// ErrEncryptionUnsupported is returned by Open when a key is given to a
// build without SQLCipher.
var ErrEncryptionUnsupported = errors.New("sqlite encryption requires a CGO build")

// Open opens the database at opts.Path on a single connection, so
// connection-scoped pragmas and in-memory databases hold for the life of
// the pool.
func Open(ctx context.Context, opts Options) (*sql.DB, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if opts.EncryptionKey != "" && !EncryptionSupported {
		return nil, ErrEncryptionUnsupported
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = 5 * time.Second
	}

	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// The key must be the first statement on the connection.
	pragmas := make([]string, 0, 4)
	if opts.EncryptionKey != "" {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA key = '%s'", strings.ReplaceAll(opts.EncryptionKey, "'", "''")))
	}
	pragmas = append(pragmas,
		fmt.Sprintf("PRAGMA busy_timeout = %d", opts.BusyTimeout.Milliseconds()),
		"PRAGMA foreign_keys = ON",
	)
	if opts.Path != MemoryPath {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", redact(p), err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		if opts.EncryptionKey != "" {
			return nil, fmt.Errorf("failed to verify encryption key (wrong key or corrupted database): %w", err)
		}
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// UniqueViolation reports whether err is a UNIQUE constraint failure and
// returns the constrained columns, e.g. "prompt_versions.template_id,
// prompt_versions.version_number".
func UniqueViolation(err error) (columns string, ok bool) {
	if err == nil {
		return "", false
	}
	const marker = "UNIQUE constraint failed: "
	msg := err.Error()
	i := strings.Index(msg, marker)
	if i < 0 {
		return "", false
	}
	columns = msg[i+len(marker):]
	if j := strings.IndexAny(columns, "()"); j >= 0 {
		columns = columns[:j]
	}
	return strings.TrimSpace(columns), true
}

func redact(pragma string) string {
	if strings.HasPrefix(pragma, "PRAGMA key") {
		return "PRAGMA key"
	}
	return pragma
}
