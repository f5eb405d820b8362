//go:build cgo

package sqlitedriver

import (
	_ "github.com/mutecomm/go-sqlcipher/v4" // registers "sqlite3" with SQLCipher
)

// EncryptionSupported reports whether Open accepts an encryption key.
const EncryptionSupported = true
