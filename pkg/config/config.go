// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Backend names the storage holding the dataset
type Backend string

const (
	BackendPostgres  Backend = "postgres"
	BackendSnowflake Backend = "snowflake"
	BackendSQLite    Backend = "sqlite"
)

// SimilarityConfig holds the role clustering thresholds
type SimilarityConfig struct {
	CharsPerEdit   int
	MinFuzzyLength int
	MaxEdits       int
}

// Config represents the application configuration
type Config struct {
	// Database connection, only the selected backend is loaded
	Backend   Backend
	Snowflake *SnowflakeConfig
	Postgres  *PostgresConfig
	SQLite    *SQLiteConfig

	// Curation settings
	Workers    int // 0 means use runtime.NumCPU()
	BatchSize  int
	Similarity SimilarityConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		// Default values
		Backend:   Backend(strings.ToLower(getEnv("CURATION_BACKEND", string(BackendPostgres)))),
		Workers:   getEnvAsInt("CURATION_WORKERS", 0),
		BatchSize: getEnvAsInt("CURATION_BATCH_SIZE", 500),
		Similarity: SimilarityConfig{
			CharsPerEdit:   getEnvAsInt("SIMILARITY_CHARS_PER_EDIT", 4),
			MinFuzzyLength: getEnvAsInt("SIMILARITY_MIN_LENGTH", 4),
			MaxEdits:       getEnvAsInt("SIMILARITY_MAX_EDITS", 2),
		},
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Load the database configuration of the selected backend
	switch cfg.Backend {
	case BackendPostgres:
		pgConfig, err := LoadPostgresConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load PostgreSQL configuration: %w", err)
		}
		cfg.Postgres = pgConfig
	case BackendSnowflake:
		snowConfig, err := LoadSnowflakeConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load Snowflake configuration: %w", err)
		}
		cfg.Snowflake = snowConfig
	case BackendSQLite:
		cfg.SQLite = LoadSQLiteConfig()
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendPostgres:
		if c.Postgres == nil {
			return errors.New("postgreSQL configuration is required")
		}
	case BackendSnowflake:
		if c.Snowflake == nil {
			return errors.New("snowflake configuration is required")
		}
	case BackendSQLite:
		if c.SQLite == nil || c.SQLite.Path == "" {
			return errors.New("sqlite path is required")
		}
	default:
		return fmt.Errorf("unsupported backend %q", c.Backend)
	}

	if c.Workers < 0 {
		return errors.New("workers cannot be negative")
	}

	if c.BatchSize <= 0 {
		return errors.New("batch size must be positive")
	}

	if c.Similarity.CharsPerEdit <= 0 {
		return errors.New("similarity chars per edit must be positive")
	}

	if c.Similarity.MinFuzzyLength < 0 || c.Similarity.MaxEdits < 0 {
		return errors.New("similarity thresholds cannot be negative")
	}

	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
