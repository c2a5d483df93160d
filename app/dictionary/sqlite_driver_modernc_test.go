//go:build native_sqlite

package dictionary

import (
	_ "modernc.org/sqlite"
)

const testSQLiteDriver = "sqlite"
