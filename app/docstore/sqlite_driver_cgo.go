//go:build !native_sqlite

package docstore

import (
	_ "github.com/mattn/go-sqlite3"
)

const SQLiteDriverName = "sqlite3"

// WAL lets searches read while a refresh writes.
const sqliteDSNParams = "?_journal_mode=WAL&_busy_timeout=5000"
