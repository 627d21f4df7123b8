package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigSQLiteDefaults(t *testing.T) {
	t.Setenv("CURATION_BACKEND", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/theatrical.db")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Nil(t, cfg.Postgres)
	assert.Nil(t, cfg.Snowflake)
	require.NotNil(t, cfg.SQLite)
	assert.Equal(t, "/tmp/theatrical.db", cfg.SQLite.Path)
	assert.Equal(t, 5*time.Second, cfg.SQLite.BusyTimeout)
	assert.Equal(t, "file:/tmp/theatrical.db?_busy_timeout=5000&_foreign_keys=on", cfg.SQLite.ConnectionString())

	assert.Equal(t, 0, cfg.Workers)
	assert.Equal(t, 500, cfg.BatchSize)
	assert.Equal(t, SimilarityConfig{CharsPerEdit: 4, MinFuzzyLength: 4, MaxEdits: 2}, cfg.Similarity)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfigPostgres(t *testing.T) {
	t.Setenv("CURATION_BACKEND", "postgres")
	t.Setenv("POSTGRES_USER", "curator")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "theatrical")
	t.Setenv("POSTGRES_PORT", "6543")
	t.Setenv("POSTGRES_DRIVER", "postgres")
	t.Setenv("CURATION_BATCH_SIZE", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.NotNil(t, cfg.Postgres)
	assert.Equal(t, "postgres", cfg.Postgres.Driver)
	assert.Equal(t, 500, cfg.BatchSize, "unparsable values fall back to defaults")
	assert.Equal(t,
		"host=localhost port=6543 user=curator password=secret dbname=theatrical sslmode=disable",
		cfg.Postgres.ConnectionString())
}

func TestLoadConfigPostgresMissingCredentials(t *testing.T) {
	t.Setenv("CURATION_BACKEND", "postgres")
	t.Setenv("POSTGRES_USER", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_USER")
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	t.Setenv("CURATION_BACKEND", "postgres")
	t.Setenv("POSTGRES_USER", "curator")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "theatrical")
	t.Setenv("POSTGRES_DRIVER", "mysql")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Backend:    BackendSQLite,
			SQLite:     &SQLiteConfig{Path: ":memory:"},
			BatchSize:  100,
			Similarity: SimilarityConfig{CharsPerEdit: 4, MinFuzzyLength: 4, MaxEdits: 2},
			LogFormat:  "console",
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown backend", mutate: func(c *Config) { c.Backend = "oracle" }},
		{name: "missing postgres", mutate: func(c *Config) { c.Backend = BackendPostgres }},
		{name: "missing snowflake", mutate: func(c *Config) { c.Backend = BackendSnowflake }},
		{name: "negative workers", mutate: func(c *Config) { c.Workers = -1 }},
		{name: "zero batch size", mutate: func(c *Config) { c.BatchSize = 0 }},
		{name: "zero chars per edit", mutate: func(c *Config) { c.Similarity.CharsPerEdit = 0 }},
		{name: "negative max edits", mutate: func(c *Config) { c.Similarity.MaxEdits = -1 }},
		{name: "unknown log format", mutate: func(c *Config) { c.LogFormat = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSQLiteMemoryConnectionString(t *testing.T) {
	cfg := &SQLiteConfig{Path: ":memory:", BusyTimeout: time.Second}
	assert.Equal(t, "file::memory:?_busy_timeout=1000&_foreign_keys=on", cfg.ConnectionString())
	assert.True(t, cfg.InMemory())
}
