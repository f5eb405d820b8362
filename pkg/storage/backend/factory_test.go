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

package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/promptver/internal/sqlitedriver"
	"github.com/teradata-labs/promptver/pkg/lifecycle"
	"github.com/teradata-labs/promptver/pkg/storage/storetest"
)

func TestNew_Memory(t *testing.T) {
	b, err := New(context.Background(), Config{Backend: TypeMemory}, nil, nil)
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, "memory", b.Name())
	assert.NoError(t, b.Ping(context.Background()))
	_, ok := b.(MigrationInspector)
	assert.False(t, ok)
}

func TestNew_SQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "promptver.db")

	tests := []struct {
		name    string
		backend Type
	}{
		{name: "explicit", backend: TypeSQLite},
		{name: "default", backend: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(ctx, Config{Backend: tt.backend, SQLite: SQLiteConfig{Path: path}}, nil, nil)
			require.NoError(t, err)
			defer b.Close()

			assert.Equal(t, "sqlite", b.Name())
			assert.NoError(t, b.Ping(ctx))

			inspector, ok := b.(MigrationInspector)
			require.True(t, ok)
			version, err := inspector.CurrentVersion(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, version)
			pending, err := inspector.PendingMigrations(ctx)
			require.NoError(t, err)
			assert.Empty(t, pending)
		})
	}
}

func TestNew_SQLiteBackup(t *testing.T) {
	ctx := context.Background()
	b, err := New(ctx, Config{SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "promptver.db")}}, nil, nil)
	require.NoError(t, err)
	defer b.Close()

	engine := lifecycle.New(b)
	tpl := storetest.Template(t, b)
	_, err = engine.Create(ctx, lifecycle.CreateRequest{TemplateID: tpl.ID, VersionNumber: "1.0.0", Content: "Hello"})
	require.NoError(t, err)

	backuper, ok := b.(Backuper)
	require.True(t, ok)
	path, err := backuper.Backup(ctx)
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.NoError(t, err)

	compressed, err := CompressBackup(path)
	require.NoError(t, err)
	assert.Equal(t, path+CompressedSuffix, compressed)
	assert.NoFileExists(t, path)

	restored := filepath.Join(t.TempDir(), "restored.db")
	require.NoError(t, DecompressBackup(compressed, restored))

	rb, err := New(ctx, Config{SQLite: SQLiteConfig{Path: restored}}, nil, nil)
	require.NoError(t, err)
	defer rb.Close()
	history, err := lifecycle.New(rb).History(ctx, tpl.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Hello", history[0].Content)
}

func TestCompressBackup_Errors(t *testing.T) {
	_, err := CompressBackup(filepath.Join(t.TempDir(), "missing.db"))
	assert.ErrorContains(t, err, "failed to open backup")

	dir := t.TempDir()
	plain := filepath.Join(dir, "plain.db")
	require.NoError(t, os.WriteFile(plain, []byte("not zstd"), 0o600))
	assert.ErrorContains(t, DecompressBackup(plain, filepath.Join(dir, "out.db")), "failed to decompress backup")
}

func TestNew_MigrateDown(t *testing.T) {
	ctx := context.Background()
	b, err := New(ctx, Config{SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "promptver.db")}}, nil, nil)
	require.NoError(t, err)
	defer b.Close()

	inspector := b.(MigrationInspector)
	require.NoError(t, inspector.MigrateDown(ctx, 1))

	pending, err := inspector.PendingMigrations(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "prompt_versions", pending[0].Description)
	assert.Contains(t, pending[0].SQL, "prompt_versions")
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "unknown backend",
			cfg:     Config{Backend: "mongo"},
			wantErr: `unsupported storage backend: "mongo"`,
		},
		{
			name:    "sqlite without path",
			cfg:     Config{Backend: TypeSQLite},
			wantErr: "sqlite backend requires a path",
		},
		{
			name:    "in-memory sqlite cannot back up",
			cfg:     Config{Backend: TypeSQLite, SQLite: SQLiteConfig{Path: sqlitedriver.MemoryPath}},
			wantErr: "backup: in-memory databases cannot be backed up",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(context.Background(), tt.cfg, nil, nil)
			if err == nil {
				defer b.Close()
				backuper, ok := b.(Backuper)
				require.True(t, ok)
				_, err = backuper.Backup(context.Background())
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
