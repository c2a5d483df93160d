package dictionary

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/pressly/goose/v3"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// sqlDialect holds the few expressions that differ between backends. Both
// expressions must keep substring matching case-sensitive and count
// characters, not bytes.
type sqlDialect struct {
	name          Dialect
	placeholder   sq.PlaceholderFormat
	goose         goose.Dialect
	migrationsDir string
	// containsFmt takes the column and yields a predicate with one
	// placeholder for the searched term
	containsFmt string
	lengthFmt   string
}

var sqlDialects = map[Dialect]sqlDialect{
	DialectSQLite: {
		name:          DialectSQLite,
		placeholder:   sq.Question,
		goose:         goose.DialectSQLite3,
		migrationsDir: "sqlite",
		containsFmt:   "INSTR(%s, ?) > 0",
		lengthFmt:     "LENGTH(%s)",
	},
	DialectPostgres: {
		name:          DialectPostgres,
		placeholder:   sq.Dollar,
		goose:         goose.DialectPostgres,
		migrationsDir: "postgres",
		containsFmt:   "STRPOS(%s, ?) > 0",
		lengthFmt:     "LENGTH(%s)",
	},
	DialectMySQL: {
		name:          DialectMySQL,
		placeholder:   sq.Question,
		goose:         goose.DialectMySQL,
		migrationsDir: "mysql",
		// utf8 substrings are byte substrings, and binary comparison
		// sidesteps the case-insensitive default collations
		containsFmt: "INSTR(CAST(%s AS BINARY), CAST(? AS BINARY)) > 0",
		lengthFmt:   "CHAR_LENGTH(%s)",
	},
}

func lookupDialect(d Dialect) (sqlDialect, error) {
	sd, ok := sqlDialects[d]
	if !ok {
		return sqlDialect{}, fmt.Errorf("unsupported sql dialect %q", d)
	}
	return sd, nil
}

func (d sqlDialect) contains(column string, term string) sq.Sqlizer {
	return sq.Expr(fmt.Sprintf(d.containsFmt, column), term)
}

func (d sqlDialect) length(column string) string {
	return fmt.Sprintf(d.lengthFmt, column)
}
