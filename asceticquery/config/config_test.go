package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "postgres://devel:@localhost:5432/devel?sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, "file::memory:?_pragma=case_sensitive_like(1)&_time_format=sqlite", cfg.SQLite.DSN())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("ASCETICQUERY_DRIVER", "postgres")
	t.Setenv("ASCETICQUERY_DATABASE_HOST", "db.internal")
	t.Setenv("ASCETICQUERY_DATABASE_PORT", "6543")
	t.Setenv("ASCETICQUERY_QUERY_MAXPAGESIZE", "25")
	t.Setenv("ASCETICQUERY_LOG_LEVEL", "DEBUG")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Driver)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "devel", cfg.Database.User)
	assert.Equal(t, 25, cfg.Query.MaxPageSize)
	assert.Equal(t, 50, cfg.Query.DefaultPageSize)
	assert.Equal(t, "DEBUG", cfg.Log.Level)
}

func TestLoadConfigFromFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "asceticquery.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
driver: sqlite
sqlite:
  path: /tmp/demo.db
query:
  maxpagesize: 10
log:
  format: json
`), 0o600))
	t.Setenv("ASCETICQUERY_QUERY_MAXPAGESIZE", "20")

	cfg, err := LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/demo.db", cfg.SQLite.Path)
	assert.Equal(t, "/tmp/demo.db?_pragma=case_sensitive_like(1)&_time_format=sqlite", cfg.SQLite.DSN())
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 20, cfg.Query.MaxPageSize, "environment overrides the file")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDatabaseDSNEscapesPassword(t *testing.T) {
	dsn := DatabaseConfig{Host: "h", Port: 1, User: "u", Password: "p@ss word", Name: "d"}.DSN()
	assert.Equal(t, "postgres://u:p%40ss%20word@h:1/d", dsn)
}
