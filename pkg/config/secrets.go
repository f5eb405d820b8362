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
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService is the service name secrets are stored under in the
// system keyring.
const KeyringService = "promptver"

// ErrUnknownSecret is returned for a secret key no config field maps to.
var ErrUnknownSecret = errors.New("unknown secret key")

// SecretMapping ties a keyring key to the config field it fills.
type SecretMapping struct {
	KeyringKey string
	Field      func(*Config) *string
}

// GetSecretMappings returns every secret that can live in the keyring.
func GetSecretMappings() []SecretMapping {
	return []SecretMapping{
		{KeyringKey: "sqlite_encryption_key", Field: func(c *Config) *string { return &c.Storage.SQLite.EncryptionKey }},
		{KeyringKey: "postgres_password", Field: func(c *Config) *string { return &c.Storage.Postgres.Password }},
		{KeyringKey: "redis_password", Field: func(c *Config) *string { return &c.Cache.Redis.Password }},
	}
}

// ListAvailableSecretKeys returns the keyring keys of GetSecretMappings.
func ListAvailableSecretKeys() []string {
	mappings := GetSecretMappings()
	keys := make([]string, len(mappings))
	for i, m := range mappings {
		keys[i] = m.KeyringKey
	}
	return keys
}

// LoadSecrets fills empty secret fields from the system keyring. Keys
// missing from the keyring, or an unavailable keyring, leave the field
// empty.
func (c *Config) LoadSecrets() {
	for _, m := range GetSecretMappings() {
		field := m.Field(c)
		if *field != "" {
			continue
		}
		if value, err := keyring.Get(KeyringService, m.KeyringKey); err == nil && value != "" {
			*field = value
		}
	}
}

// Redacted returns a copy of c with every secret field masked.
func (c *Config) Redacted() *Config {
	out := *c
	for _, m := range GetSecretMappings() {
		field := m.Field(&out)
		*field = MaskSecret(*field)
	}
	return &out
}

// SaveSecret stores value under key in the system keyring.
func SaveSecret(key, value string) error {
	if err := checkSecretKey(key); err != nil {
		return err
	}
	if value == "" {
		return errors.New("secret cannot be empty")
	}
	if err := keyring.Set(KeyringService, key, value); err != nil {
		return fmt.Errorf("failed to save %s to keyring: %w", key, err)
	}
	return nil
}

// GetSecret reads key from the system keyring.
func GetSecret(key string) (string, error) {
	if err := checkSecretKey(key); err != nil {
		return "", err
	}
	value, err := keyring.Get(KeyringService, key)
	if err != nil {
		return "", fmt.Errorf("failed to read %s from keyring: %w", key, err)
	}
	return value, nil
}

// DeleteSecret removes key from the system keyring.
func DeleteSecret(key string) error {
	if err := checkSecretKey(key); err != nil {
		return err
	}
	if err := keyring.Delete(KeyringService, key); err != nil {
		return fmt.Errorf("failed to delete %s from keyring: %w", key, err)
	}
	return nil
}

func checkSecretKey(key string) error {
	available := ListAvailableSecretKeys()
	if !slices.Contains(available, key) {
		return fmt.Errorf("%w %q (available: %s)", ErrUnknownSecret, key, strings.Join(available, ", "))
	}
	return nil
}

// MaskSecret hides s, keeping the first and last two characters of longer secrets.
func MaskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "****"
	default:
		return s[:2] + "****" + s[len(s)-2:]
	}
}
