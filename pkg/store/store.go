// Package store persists curated records through a database connector.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/theatrical-curation/pkg/connector"
	"github.com/David-Botos/theatrical-curation/pkg/model"
	"github.com/David-Botos/theatrical-curation/pkg/session"
)

const defaultBatchSize = 500

// Store reads and writes the theatrical dataset
type Store struct {
	db        *sqlx.DB
	dialect   connector.Dialect
	logger    *zap.Logger
	batchSize int
}

// New creates a store on top of an open connector
func New(conn connector.DatabaseConnector, logger *zap.Logger, batchSize int) (*Store, error) {
	if conn == nil {
		return nil, errors.New("database connector cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &Store{
		db:        conn.DB(),
		dialect:   conn.Dialect(),
		logger:    logger,
		batchSize: batchSize,
	}, nil
}

// Dialect returns the SQL flavour of the underlying connection
func (s *Store) Dialect() connector.Dialect {
	return s.dialect
}

// kindOf returns the kind served by a record type
func kindOf[T model.CurationTarget]() model.Kind {
	var zero T
	return zero.Kind()
}

// selectList aliases every column to its lower-case name so that
// warehouses folding unquoted identifiers still map onto the db tags
func selectList(columns []string) string {
	aliased := make([]string, len(columns))
	for i, col := range columns {
		aliased[i] = fmt.Sprintf(`%s AS "%s"`, col, strings.ToLower(col))
	}
	return strings.Join(aliased, ", ")
}

// FetchAll returns every record of a kind ordered by key
func FetchAll[T model.CurationTarget](ctx context.Context, s *Store, kind model.Kind) ([]T, error) {
	if want := kindOf[T](); want != kind {
		return nil, fmt.Errorf("%w: %q requested for %s records", model.ErrUnknownKind, kind, want)
	}

	md, err := model.MetadataFor(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		selectList(md.Columns), md.Table, md.KeyColumn)

	records := []T{}
	if err := s.db.SelectContext(ctx, &records, query); err != nil {
		return nil, newStoreError("fetch", kind, err)
	}

	s.logger.Debug("Fetched records",
		zap.String("kind", string(kind)),
		zap.String("table", md.Table),
		zap.Int("count", len(records)))
	return records, nil
}

// updateStatement builds the parameterised update for the curatable columns of a kind
func updateStatement(md model.TableMetadata, fields []model.Field) string {
	assignments := make([]string, len(fields))
	for i, field := range fields {
		assignments[i] = field.Name + " = ?"
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		md.Table, strings.Join(assignments, ", "), md.KeyColumn)
}

// BulkUpdate writes the curatable columns of already mutated records.
// All chunks run in one transaction; identities are never written.
func BulkUpdate[T model.CurationTarget](ctx context.Context, s *Store, records []T) (_ []T, err error) {
	if len(records) == 0 {
		return records, nil
	}

	kind := records[0].Kind()
	md, err := model.MetadataFor(kind)
	if err != nil {
		return nil, err
	}

	fields := records[0].CuratableFields()
	for _, field := range fields {
		if !md.HasColumn(field.Name) {
			return nil, fmt.Errorf("%w: %s has no column %q", model.ErrMalformedRecord, md.Table, field.Name)
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, newStoreError("update", kind, fmt.Errorf("failed to begin transaction: %w", err))
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

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(updateStatement(md, fields)))
	if err != nil {
		return nil, newStoreError("update", kind, fmt.Errorf("failed to prepare statement: %w", err))
	}
	defer stmt.Close()

	var missing []int64
	for start := 0; start < len(records); start += s.batchSize {
		end := min(start+s.batchSize, len(records))

		for _, record := range records[start:end] {
			if record.Kind() != kind {
				err = fmt.Errorf("%w: %s record in %s batch", model.ErrMalformedRecord, record.Kind(), kind)
				return nil, err
			}

			recordFields := record.CuratableFields()
			args := make([]interface{}, 0, len(recordFields)+1)
			for _, field := range recordFields {
				args = append(args, field.SQLValue())
			}
			args = append(args, record.RecordKey())

			result, execErr := stmt.ExecContext(ctx, args...)
			if execErr != nil {
				err = newStoreError("update", kind,
					fmt.Errorf("failed to update %s %d: %w", md.Table, record.RecordKey(), execErr))
				return nil, err
			}
			if affected, raErr := result.RowsAffected(); raErr == nil && affected == 0 {
				missing = append(missing, record.RecordKey())
			}
		}

		s.logger.Debug("Updated chunk",
			zap.String("kind", string(kind)),
			zap.Int("from", start),
			zap.Int("to", end))
	}

	if err = tx.Commit(); err != nil {
		return nil, newStoreError("update", kind, fmt.Errorf("failed to commit transaction: %w", err))
	}

	if len(missing) > 0 {
		s.logger.Warn("Some records no longer exist",
			zap.String("kind", string(kind)),
			zap.Int64s("recordKeys", missing))
	}

	s.logger.Info("Updated records",
		zap.String("kind", string(kind)),
		zap.Int("count", len(records)))
	return records, nil
}

// DeleteContributions removes contributions by key and returns the number of deleted rows
func (s *Store) DeleteContributions(ctx context.Context, contributions []*model.Contribution) (_ int64, err error) {
	if len(contributions) == 0 {
		return 0, nil
	}

	md, err := model.MetadataFor(model.KindContribution)
	if err != nil {
		return 0, err
	}

	ids := make([]int64, len(contributions))
	for i, c := range contributions {
		ids[i] = c.ID
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, newStoreError("delete", model.KindContribution, fmt.Errorf("failed to begin transaction: %w", err))
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

	var removed int64
	for start := 0; start < len(ids); start += s.batchSize {
		end := min(start+s.batchSize, len(ids))

		query, args, inErr := sqlx.In(
			fmt.Sprintf("DELETE FROM %s WHERE %s IN (?)", md.Table, md.KeyColumn), ids[start:end])
		if inErr != nil {
			err = fmt.Errorf("failed to expand delete statement: %w", inErr)
			return 0, err
		}

		result, execErr := tx.ExecContext(ctx, tx.Rebind(query), args...)
		if execErr != nil {
			err = newStoreError("delete", model.KindContribution, execErr)
			return 0, err
		}
		if affected, raErr := result.RowsAffected(); raErr == nil {
			removed += affected
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, newStoreError("delete", model.KindContribution, fmt.Errorf("failed to commit transaction: %w", err))
	}

	s.logger.Info("Deleted contributions",
		zap.Int("requested", len(ids)),
		zap.Int64("removed", removed))
	return removed, nil
}

// Fetcher adapts FetchAll to the session fetch collaborator
func Fetcher[T model.CurationTarget](s *Store) session.FetchFunc[T] {
	return func(ctx context.Context, kind model.Kind) ([]T, error) {
		return FetchAll[T](ctx, s, kind)
	}
}

// Updater adapts BulkUpdate to the session update collaborator
func Updater[T model.CurationTarget](s *Store) session.UpdateFunc[T] {
	return func(ctx context.Context, records []T) ([]T, error) {
		return BulkUpdate(ctx, s, records)
	}
}
