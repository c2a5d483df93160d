package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahesh-hegde/hsrdict/app/common"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0o644))
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	conf, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, conf.DataDir)
	assert.Equal(t, "hsrdict", conf.InstanceName)
	assert.Equal(t, StoreSQLite, conf.Store.Backend)
	assert.Equal(t, "db", conf.Store.Host)
	assert.Equal(t, "starrail_dictionary", conf.Store.Name)
	assert.Equal(t, 800, conf.Source.BatchSize)
	assert.Equal(t, 100, conf.Search.MaxPageSize)
	assert.Zero(t, conf.CacheTTL())
	assert.Equal(t, 5*time.Minute, conf.SourceTimeout())

	catalog, err := conf.Catalog()
	require.NoError(t, err)
	assert.Equal(t, common.AllLanguages(), catalog.Languages())
	url, ok := catalog.SourceURL(common.Chs)
	require.True(t, ok)
	assert.Equal(t, "https://raw.githubusercontent.com/CanglongCl/StarRailData/master/TextMap/TextMapCHS.json", url)
}

func TestLoad_File(t *testing.T) {
	dir := writeConfig(t, `{
		"instance_name": "test",
		"hostnames": ["dict.example.com", "www.dict.example.com"],
		"store": {"backend": "postgres", "user": "u", "password": "p", "port": 6543},
		"source": {"url_template": "http://mirror/{LANG}.json", "languages": ["EN", "jp"], "batch_size": 100},
		"search": {"max_page_size": 20, "cache_seconds": 30},
		"log": {"level": "debug", "format": "json"}
	}`)

	conf, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "test", conf.InstanceName)
	assert.Equal(t, []string{"dict.example.com", "www.dict.example.com"}, conf.Hostnames)
	assert.Equal(t, StorePostgres, conf.Store.Backend)
	assert.Equal(t, 6543, conf.Store.Port)
	// unset fields keep their defaults
	assert.Equal(t, "db", conf.Store.Host)
	assert.Equal(t, 100, conf.Source.BatchSize)
	assert.Equal(t, 20, conf.Search.MaxPageSize)
	assert.Equal(t, 30*time.Second, conf.CacheTTL())

	level, err := conf.Log.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	catalog, err := conf.Catalog()
	require.NoError(t, err)
	assert.Equal(t, []common.Language{common.En, common.Jp}, catalog.Languages())
	url, _ := catalog.SourceURL(common.Jp)
	assert.Equal(t, "http://mirror/JP.json", url)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HSRDICT_STORE", "mysql")
	t.Setenv("DATABASE_USER", "starrail")
	t.Setenv("DATABASE_PASSWORD", "secret")
	t.Setenv("HSRDICT_LANGUAGES", "de,fr")

	dir := writeConfig(t, `{"store": {"backend": "bleve", "user": "file-user"}}`)
	conf, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, StoreMySQL, conf.Store.Backend)
	assert.Equal(t, "starrail", conf.Store.User)
	assert.Equal(t, "secret", conf.Store.Password)
	assert.Equal(t, []string{"de", "fr"}, conf.Source.Languages)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown backend", `{"store": {"backend": "redis"}}`},
		{"negative batch size", `{"source": {"batch_size": -1}}`},
		{"unknown language", `{"source": {"languages": ["en", "xx"]}}`},
		{"template without placeholder", `{"source": {"url_template": "http://mirror/en.json"}}`},
		{"negative page size", `{"search": {"max_page_size": -5}}`},
		{"negative cache ttl", `{"search": {"cache_seconds": -1}}`},
		{"bad log level", `{"log": {"level": "loud"}}`},
		{"bad log format", `{"log": {"format": "xml"}}`},
		{"malformed file", `{"store": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}
