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
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDataDir(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name  string
		env   string
		check func(t *testing.T, got string)
	}{
		{
			name: "default to ~/.promptver",
			env:  "",
			check: func(t *testing.T, got string) {
				assert.Equal(t, filepath.Join(homeDir, ".promptver"), got)
			},
		},
		{
			name: "absolute path",
			env:  "/srv/promptver",
			check: func(t *testing.T, got string) {
				assert.Equal(t, "/srv/promptver", got)
			},
		},
		{
			name: "expand tilde",
			env:  "~/custom/.promptver",
			check: func(t *testing.T, got string) {
				assert.Equal(t, filepath.Join(homeDir, "custom", ".promptver"), got)
			},
		},
		{
			name: "relative path made absolute",
			env:  "relative/path",
			check: func(t *testing.T, got string) {
				assert.True(t, filepath.IsAbs(got))
				assert.True(t, strings.HasSuffix(got, filepath.Join("relative", "path")))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(DataDirEnv, tt.env)
			tt.check(t, GetDataDir())
		})
	}
}

func TestGetSubDir(t *testing.T) {
	t.Setenv(DataDirEnv, "/srv/promptver")
	assert.Equal(t, "/srv/promptver/backups", GetSubDir("backups"))
}
