package docstore

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/mahesh-hegde/hsrdict/app/config"
)

const defaultPostgresPort = 5432

// PostgresDSN returns conf.DSN, or a URL built from the connection fields.
func PostgresDSN(conf config.StoreConfig) string {
	if conf.DSN != "" {
		return conf.DSN
	}
	port := conf.Port
	if port == 0 {
		port = defaultPostgresPort
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(conf.User, conf.Password),
		Host:     net.JoinHostPort(conf.Host, strconv.Itoa(port)),
		Path:     "/" + conf.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func NewPostgresDB(conf config.StoreConfig) (*sqlx.DB, error) {
	slog.Info("opening postgres DB", "host", conf.Host, "database", conf.Name)
	db, err := sqlx.Open("pgx", PostgresDSN(conf))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	return db, nil
}
