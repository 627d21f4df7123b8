// pkg/connector/sqlite.go
package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/David-Botos/theatrical-curation/pkg/config"
)

// SQLiteConnector implements the DatabaseConnector interface for SQLite files
type SQLiteConnector struct {
	sqlConnector
	cfg *config.SQLiteConfig
}

// NewSQLiteConnector opens a SQLite database
func NewSQLiteConnector(ctx context.Context, cfg *config.SQLiteConfig) (*SQLiteConnector, error) {
	logger := zap.L().Named("sqlite-connector")

	logger.Info("Opening SQLite database", zap.String("path", cfg.Path))

	db, err := sqlx.Open("sqlite3", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite connection: %w", err)
	}

	// Every connection to :memory: would see its own empty database
	if cfg.InMemory() {
		db.SetMaxOpenConns(1)
	}

	if err := PingWithTimeout(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	connector := &SQLiteConnector{
		sqlConnector: sqlConnector{
			db:      db,
			logger:  logger,
			name:    cfg.Path,
			dialect: DialectSQLite,
		},
		cfg: cfg,
	}

	LogConnectionStats(logger, cfg.Path, db.DB)
	return connector, nil
}

// Validate verifies the SQLite database and the dataset tables
func (c *SQLiteConnector) Validate(ctx context.Context) error {
	var version string
	if err := c.db.QueryRowxContext(ctx, "SELECT sqlite_version()").Scan(&version); err != nil {
		return fmt.Errorf("failed to query SQLite version: %w", err)
	}
	c.logger.Info("Opened SQLite database",
		zap.String("path", c.cfg.Path),
		zap.String("version", version))

	c.warnMissingTables(ctx)
	return nil
}
