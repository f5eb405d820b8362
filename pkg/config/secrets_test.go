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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestSecrets_RoundTrip(t *testing.T) {
	keyring.MockInit()

	require.NoError(t, SaveSecret("postgres_password", "s3cret-password"))
	got, err := GetSecret("postgres_password")
	require.NoError(t, err)
	assert.Equal(t, "s3cret-password", got)

	require.NoError(t, DeleteSecret("postgres_password"))
	_, err = GetSecret("postgres_password")
	assert.Error(t, err)
}

func TestSecrets_UnknownKey(t *testing.T) {
	keyring.MockInit()

	for _, err := range []error{
		SaveSecret("api_key", "x"),
		DeleteSecret("api_key"),
	} {
		assert.ErrorIs(t, err, ErrUnknownSecret)
	}
	_, err := GetSecret("api_key")
	assert.ErrorIs(t, err, ErrUnknownSecret)

	assert.EqualError(t, SaveSecret("redis_password", ""), "secret cannot be empty")
}

func TestLoadSecrets(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, SaveSecret("sqlite_encryption_key", "from-keyring"))
	require.NoError(t, SaveSecret("redis_password", "from-keyring"))

	cfg := Default()
	cfg.Cache.Redis.Password = "from-config"
	cfg.LoadSecrets()

	assert.Equal(t, "from-keyring", cfg.Storage.SQLite.EncryptionKey)
	assert.Equal(t, "from-config", cfg.Cache.Redis.Password, "explicit values win")
	assert.Empty(t, cfg.Storage.Postgres.Password, "missing keys stay empty")
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.Storage.SQLite.EncryptionKey = "abcdefghijkl"
	cfg.Storage.Postgres.Password = "short"

	red := cfg.Redacted()
	assert.Equal(t, "ab****kl", red.Storage.SQLite.EncryptionKey)
	assert.Equal(t, "****", red.Storage.Postgres.Password)
	assert.Empty(t, red.Cache.Redis.Password)
	assert.Equal(t, "abcdefghijkl", cfg.Storage.SQLite.EncryptionKey, "original untouched")
}
