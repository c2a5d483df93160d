package docstore

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/mahesh-hegde/hsrdict/app/config"
)

const defaultMySQLPort = 3306

// MySQLDSN returns conf.DSN, or a DSN built from the connection fields.
func MySQLDSN(conf config.StoreConfig) string {
	if conf.DSN != "" {
		return conf.DSN
	}
	port := conf.Port
	if port == 0 {
		port = defaultMySQLPort
	}
	c := mysql.NewConfig()
	c.User = conf.User
	c.Passwd = conf.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(conf.Host, strconv.Itoa(port))
	c.DBName = conf.Name
	c.ParseTime = true
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

func NewMySQLDB(conf config.StoreConfig) (*sqlx.DB, error) {
	slog.Info("opening mysql DB", "host", conf.Host, "database", conf.Name)
	db, err := sqlx.Open("mysql", MySQLDSN(conf))
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}
	return db, nil
}
