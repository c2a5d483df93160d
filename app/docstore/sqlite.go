package docstore

import (
	"log/slog"
	"path/filepath"

	"github.com/jmoiron/sqlx"
)

const sqliteFileName = "hsrdict.db"

// NewSQLiteDB opens (creating if needed) the SQLite database in dataDir.
func NewSQLiteDB(dataDir string) (*sqlx.DB, error) {
	dbPath := filepath.Join(dataDir, sqliteFileName)
	slog.Info("opening SQLite DB", "dbPath", dbPath, "driver", SQLiteDriverName)
	return sqlx.Open(SQLiteDriverName, dbPath+sqliteDSNParams)
}
