package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/David-Botos/theatrical-curation/pkg/connector"
	"github.com/David-Botos/theatrical-curation/pkg/model"
)

// AuditTable receives one row per field rewritten by curation
const AuditTable = "curation_log"

var auditColumns = []string{
	"run_id", "kind", "table_name", "column_name", "original_value",
	"new_value", "record_key", "cleaning_operation", "cleaning_reason", "cleaned_at",
}

// logRow mirrors a curation_log row
type logRow struct {
	RunID             string         `db:"run_id"`
	Kind              string         `db:"kind"`
	TableName         string         `db:"table_name"`
	ColumnName        string         `db:"column_name"`
	OriginalValue     sql.NullString `db:"original_value"`
	NewValue          sql.NullString `db:"new_value"`
	RecordKey         int64          `db:"record_key"`
	CleaningOperation string         `db:"cleaning_operation"`
	CleaningReason    sql.NullString `db:"cleaning_reason"`
	CleanedAt         time.Time      `db:"cleaned_at"`
}

func (r logRow) operation() model.CleaningOperation {
	return model.CleaningOperation{
		RunID:             r.RunID,
		Kind:              model.Kind(r.Kind),
		TableName:         r.TableName,
		ColumnName:        r.ColumnName,
		OriginalValue:     r.OriginalValue.String,
		NewValue:          r.NewValue.String,
		RecordKey:         r.RecordKey,
		CleaningOperation: r.CleaningOperation,
		CleaningReason:    r.CleaningReason.String,
		CleanedAt:         r.CleanedAt,
	}
}

// toNullableString stores empty values as NULL
func toNullableString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

// auditTableDDL returns the CREATE TABLE statement of the audit table for a dialect
func auditTableDDL(dialect connector.Dialect) string {
	idColumn := "id SERIAL PRIMARY KEY"
	switch dialect {
	case connector.DialectSQLite:
		idColumn = "id INTEGER PRIMARY KEY AUTOINCREMENT"
	case connector.DialectSnowflake:
		idColumn = "id INTEGER AUTOINCREMENT PRIMARY KEY"
	}

	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			%s,
			run_id VARCHAR(36) NOT NULL,
			kind VARCHAR(32) NOT NULL,
			table_name VARCHAR(255) NOT NULL,
			column_name VARCHAR(255) NOT NULL,
			original_value TEXT,
			new_value TEXT,
			record_key BIGINT NOT NULL,
			cleaning_operation VARCHAR(64) NOT NULL,
			cleaning_reason VARCHAR(255),
			cleaned_at TIMESTAMP NOT NULL
		)`, AuditTable, idColumn)
}

// EnsureSchema ensures the curation_log audit table exists
func (s *Store) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, auditTableDDL(s.dialect)); err != nil {
		return fmt.Errorf("failed to create %s table: %w", AuditTable, err)
	}

	// Snowflake has no secondary indexes
	if s.dialect != connector.DialectSnowflake {
		index := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_run_id ON %s (run_id)", AuditTable, AuditTable)
		if _, err := s.db.ExecContext(ctx, index); err != nil {
			return fmt.Errorf("failed to create %s index: %w", AuditTable, err)
		}
	}

	s.logger.Info("Audit table ready",
		zap.String("table", AuditTable),
		zap.String("dialect", string(s.dialect)))
	return nil
}

// RecordCleaningOperations batch inserts cleaning operations into the audit table.
// Operations without a run ID share one generated for this call.
func (s *Store) RecordCleaningOperations(ctx context.Context, operations []model.CleaningOperation) (err error) {
	if len(operations) == 0 {
		return nil
	}

	fallbackRunID := uuid.NewString()

	// Begin transaction
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.NamedError("cause", err))
			}
		}
	}()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(auditColumns)), ", ")
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		AuditTable, strings.Join(auditColumns, ", "), placeholders)

	// Prepare statement
	stmt, err := tx.PreparexContext(ctx, tx.Rebind(insert))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	// Execute batch insert
	for _, op := range operations {
		runID := op.RunID
		if runID == "" {
			runID = fallbackRunID
		}
		cleanedAt := op.CleanedAt
		if cleanedAt.IsZero() {
			cleanedAt = time.Now().UTC()
		}

		_, err = stmt.ExecContext(ctx,
			runID,
			string(op.Kind),
			op.TableName,
			op.ColumnName,
			toNullableString(op.OriginalValue),
			toNullableString(op.NewValue),
			op.RecordKey,
			op.CleaningOperation,
			toNullableString(op.CleaningReason),
			cleanedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert cleaning operation: %w", err)
		}
	}

	// Commit transaction
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Recorded cleaning operations", zap.Int("count", len(operations)))
	return nil
}

// LoggedOperations returns the audit rows of a run in insertion order
func (s *Store) LoggedOperations(ctx context.Context, runID string) ([]model.CleaningOperation, error) {
	query := s.db.Rebind(fmt.Sprintf("SELECT %s FROM %s WHERE run_id = ? ORDER BY id",
		selectList(auditColumns), AuditTable))

	var rows []logRow
	if err := s.db.SelectContext(ctx, &rows, query, runID); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", AuditTable, err)
	}

	operations := make([]model.CleaningOperation, len(rows))
	for i, row := range rows {
		operations[i] = row.operation()
	}
	return operations, nil
}
