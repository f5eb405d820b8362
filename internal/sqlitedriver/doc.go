// Package sqlitedriver registers a SQLite database/sql driver under the name
// "sqlite3" and opens promptver databases on it. With CGO it uses
// go-sqlcipher, which supports SQLCipher encryption. Without CGO it falls
// back to the pure-Go modernc.org/sqlite driver, which cannot encrypt.
//
//	db, err := sqlitedriver.Open(ctx, sqlitedriver.Options{Path: "promptver.db"})
package sqlitedriver
