package connector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/theatrical-curation/pkg/config"
)

func TestSQLiteConnector(t *testing.T) {
	ctx := context.Background()

	conn, err := NewSQLiteConnector(ctx, &config.SQLiteConfig{Path: ":memory:", BusyTimeout: time.Second})
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, DialectSQLite, conn.Dialect())
	assert.Len(t, conn.missingTables(ctx), 6)

	_, err = conn.ExecWithTimeout(ctx, "CREATE TABLE roles (id INTEGER PRIMARY KEY, value TEXT NOT NULL)", time.Second)
	require.NoError(t, err)

	assert.NotContains(t, conn.missingTables(ctx), "roles")
	require.NoError(t, conn.Validate(ctx))

	stats := GetConnectionStats(conn.DB().DB)
	assert.Equal(t, 1, stats.MaxOpenConns)
}

func TestConnectorFactoryCreate(t *testing.T) {
	ctx := context.Background()

	factory := NewConnectorFactory(&config.Config{
		Backend: config.BackendSQLite,
		SQLite:  &config.SQLiteConfig{Path: ":memory:", BusyTimeout: time.Second},
	}, zap.NewNop())

	conn, err := factory.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, DialectSQLite, conn.Dialect())
	require.NoError(t, conn.Close())

	_, err = NewConnectorFactory(&config.Config{Backend: "oracle"}, zap.NewNop()).Create(ctx)
	require.Error(t, err)
}
