//go:build native_sqlite

package docstore

import (
	_ "modernc.org/sqlite"
)

const SQLiteDriverName = "sqlite"

const sqliteDSNParams = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
