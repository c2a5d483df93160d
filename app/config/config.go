package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/mahesh-hegde/hsrdict/app/common"
)

const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMySQL    = "mysql"
	StoreBleve    = "bleve"
)

type StoreConfig struct {
	// One of sqlite, postgres, mysql or bleve.
	Backend string `json:"backend" env:"HSRDICT_STORE" env-default:"sqlite"`
	// Used as is when set. Otherwise postgres and mysql DSNs are built from
	// the fields below, and sqlite and bleve live in the data directory.
	DSN      string `json:"dsn" env:"DATABASE_DSN"`
	User     string `json:"user" env:"DATABASE_USER"`
	Password string `json:"password" env:"DATABASE_PASSWORD"`
	Host     string `json:"host" env:"DATABASE_HOST" env-default:"db"`
	// 0 means the backend's default port.
	Port int    `json:"port" env:"DATABASE_PORT"`
	Name string `json:"name" env:"DATABASE_NAME" env-default:"starrail_dictionary"`

	MaxOpenConns           int `json:"max_open_conns" env:"DATABASE_MAX_OPEN_CONNS" env-default:"10"`
	ConnMaxLifetimeSeconds int `json:"conn_max_lifetime_seconds" env:"DATABASE_CONN_MAX_LIFETIME_SECONDS" env-default:"3600"`
}

type SourceConfig struct {
	// Must contain the {LANG} placeholder. Empty means the public StarRailData
	// text maps.
	URLTemplate string `json:"url_template" env:"HSRDICT_SOURCE_URL_TEMPLATE"`
	// Language codes to load. Empty means all of them.
	Languages      []string `json:"languages" env:"HSRDICT_LANGUAGES" env-separator:","`
	TimeoutSeconds int      `json:"timeout_seconds" env:"HSRDICT_SOURCE_TIMEOUT_SECONDS" env-default:"300"`
	BatchSize      int      `json:"batch_size" env:"HSRDICT_BATCH_SIZE" env-default:"800"`
}

type SearchConfig struct {
	MaxPageSize int `json:"max_page_size" env:"HSRDICT_MAX_PAGE_SIZE" env-default:"100"`
	// 0 (the default) disables the search result cache.
	CacheSeconds int `json:"cache_seconds" env:"HSRDICT_CACHE_SECONDS"`
}

type LogConfig struct {
	Level  string `json:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `json:"format" env:"LOG_FORMAT" env-default:"text"`
}

type HsrDictConfig struct {
	InstanceName string `json:"instance_name" env-default:"hsrdict"`
	DataDir      string `json:"-"`

	// Hostnames served with ACME certificates; the first is canonical.
	Hostnames      []string `json:"hostnames" env:"HSRDICT_HOSTNAMES" env-separator:","`
	TimeoutSeconds int      `json:"timeout_seconds" env:"HSRDICT_TIMEOUT_SECONDS" env-default:"10"`
	LogLatency     bool     `json:"log_latency" env:"HSRDICT_LOG_LATENCY"`

	Store  StoreConfig  `json:"store"`
	Source SourceConfig `json:"source"`
	Search SearchConfig `json:"search"`
	Log    LogConfig    `json:"log"`
}

// ServerRuntimeConfig holds settings given on the command line.
type ServerRuntimeConfig struct {
	Addr               string
	Port               int
	CertDir            string
	AcmeEnabled        bool
	RateLimit          int
	GzipLevel          int
	BehindLoadBalancer bool
	RefreshOnStart     bool
}

// Load reads <dataDir>/config.json when present and environment variables
// otherwise. Environment variables override the file; unset fields take
// their env-default.
func Load(dataDir string) (*HsrDictConfig, error) {
	var conf HsrDictConfig

	path := filepath.Join(dataDir, "config.json")
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &conf); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		slog.Info("no config file, reading environment only", "path", path)
		if err := cleanenv.ReadEnv(&conf); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	} else {
		return nil, fmt.Errorf("config: stat %s: %w", path, err)
	}
	conf.DataDir = dataDir

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &conf, nil
}

func (c *HsrDictConfig) Validate() error {
	switch c.Store.Backend {
	case StoreSQLite, StorePostgres, StoreMySQL, StoreBleve:
	default:
		return fmt.Errorf("store.backend must be one of sqlite, postgres, mysql, bleve (got %q)", c.Store.Backend)
	}
	if c.Store.MaxOpenConns < 0 {
		return fmt.Errorf("store.max_open_conns must be >= 0 (got %d)", c.Store.MaxOpenConns)
	}
	if c.Source.BatchSize <= 0 {
		return fmt.Errorf("source.batch_size must be > 0 (got %d)", c.Source.BatchSize)
	}
	if c.Source.TimeoutSeconds < 0 {
		return fmt.Errorf("source.timeout_seconds must be >= 0 (got %d)", c.Source.TimeoutSeconds)
	}
	if _, err := c.Catalog(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if c.Search.MaxPageSize <= 0 {
		return fmt.Errorf("search.max_page_size must be > 0 (got %d)", c.Search.MaxPageSize)
	}
	if c.Search.CacheSeconds < 0 {
		return fmt.Errorf("search.cache_seconds must be >= 0 (got %d)", c.Search.CacheSeconds)
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must be >= 0 (got %d)", c.TimeoutSeconds)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json (got %q)", c.Log.Format)
	}
	return nil
}

// Catalog builds the language catalog the refresh covers.
func (c *HsrDictConfig) Catalog() (*common.Catalog, error) {
	langs := make([]common.Language, 0, len(c.Source.Languages))
	for _, code := range c.Source.Languages {
		l, err := common.ParseLanguage(code)
		if err != nil {
			return nil, err
		}
		langs = append(langs, l)
	}
	return common.NewCatalog(c.Source.URLTemplate, langs...)
}

func (c *HsrDictConfig) SourceTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}

func (c *HsrDictConfig) CacheTTL() time.Duration {
	return time.Duration(c.Search.CacheSeconds) * time.Second
}

func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, err
	}
	return level, nil
}
