//go:build !native_sqlite

package dictionary

import (
	_ "github.com/mattn/go-sqlite3"
)

const testSQLiteDriver = "sqlite3"
