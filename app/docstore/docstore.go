package docstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mahesh-hegde/hsrdict/app/config"
	"github.com/mahesh-hegde/hsrdict/app/dictionary"
)

// Open connects to the configured backend and brings its schema up to date.
func Open(ctx context.Context, conf *config.HsrDictConfig) (dictionary.Store, error) {
	if conf.Store.Backend == config.StoreBleve {
		index, err := OpenBleveIndex(conf.DataDir)
		if err != nil {
			return nil, err
		}
		store := dictionary.NewBleveDictStore(index)
		if err := store.Init(ctx); err != nil {
			index.Close()
			return nil, fmt.Errorf("failed to initialize bleve store: %w", err)
		}
		return store, nil
	}

	var db *sqlx.DB
	var dialect dictionary.Dialect
	var err error
	switch conf.Store.Backend {
	case config.StoreSQLite:
		db, err = NewSQLiteDB(conf.DataDir)
		dialect = dictionary.DialectSQLite
	case config.StorePostgres:
		db, err = NewPostgresDB(conf.Store)
		dialect = dictionary.DialectPostgres
	case config.StoreMySQL:
		db, err = NewMySQLDB(conf.Store)
		dialect = dictionary.DialectMySQL
	default:
		return nil, fmt.Errorf("unknown store: %s", conf.Store.Backend)
	}
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(conf.Store.MaxOpenConns)
	db.SetConnMaxLifetime(time.Duration(conf.Store.ConnMaxLifetimeSeconds) * time.Second)

	store, err := dictionary.NewSQLDictStore(db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize %s store: %w", conf.Store.Backend, err)
	}
	if conf.Store.Backend == config.StoreSQLite {
		// sqlite allows one writer; concurrent batch inserts queue here
		// instead of failing with SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}
	return store, nil
}
