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
)

// DataDirEnv overrides the data directory.
const DataDirEnv = "PROMPTVER_DATA_DIR"

// GetDataDir returns the promptver data directory.
//
// Priority:
// 1. PROMPTVER_DATA_DIR environment variable (if set and non-empty)
// 2. ~/.promptver (default)
//
// The returned path is always absolute. Tilde (~) in PROMPTVER_DATA_DIR is
// expanded to the user's home directory.
//
// Examples:
//
//	PROMPTVER_DATA_DIR=/srv/promptver   -> /srv/promptver
//	PROMPTVER_DATA_DIR=~/pv             -> /home/user/pv
//	PROMPTVER_DATA_DIR not set          -> /home/user/.promptver
//
// Note: This reads os.Getenv directly since it locates the config file
// before viper is set up.
func GetDataDir() string {
	if dataDir := os.Getenv(DataDirEnv); dataDir != "" {
		return expandPath(dataDir)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".promptver"
	}
	return filepath.Join(homeDir, ".promptver")
}

// GetSubDir returns a path within the data directory.
// Example: GetSubDir("backups") returns ~/.promptver/backups
func GetSubDir(subdir string) string {
	return filepath.Join(GetDataDir(), subdir)
}

// expandPath expands ~ and resolves to absolute path
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}
