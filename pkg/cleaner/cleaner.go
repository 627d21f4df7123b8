// pkg/cleaner/cleaner.go
package cleaner

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/David-Botos/theatrical-curation/pkg/model"
	"github.com/David-Botos/theatrical-curation/pkg/sanitizer"
)

// defaultShardSize is the batch size below which cleaning stays on one goroutine
const defaultShardSize = 2000

// DataCleaner sanitizes the curatable text fields of record batches
type DataCleaner struct {
	logger    *zap.Logger
	sanitize  sanitizer.Func
	workers   int
	shardSize int
}

// Option configures a DataCleaner
type Option func(*DataCleaner)

// WithWorkers sets how many goroutines clean large batches (0 means runtime.NumCPU())
func WithWorkers(workers int) Option {
	return func(c *DataCleaner) {
		if workers > 0 {
			c.workers = workers
		}
	}
}

// WithShardSize sets how many records each goroutine handles
func WithShardSize(size int) Option {
	return func(c *DataCleaner) {
		if size > 0 {
			c.shardSize = size
		}
	}
}

// WithSanitizer replaces the field sanitizer
func WithSanitizer(fn sanitizer.Func) Option {
	return func(c *DataCleaner) {
		if fn != nil {
			c.sanitize = fn
		}
	}
}

// NewDataCleaner creates a new DataCleaner instance
func NewDataCleaner(logger *zap.Logger, opts ...Option) (*DataCleaner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	c := &DataCleaner{
		logger:    logger,
		sanitize:  sanitizer.Sanitize,
		workers:   runtime.NumCPU(),
		shardSize: defaultShardSize,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Result is the outcome of cleaning one batch of a single kind
type Result[T model.CurationTarget] struct {
	Kind       model.Kind
	Examined   int
	Changed    []T
	Operations []model.CleaningOperation
}

// ChangedCount returns the number of records that were rewritten
func (r Result[T]) ChangedCount() int {
	return len(r.Changed)
}

// CleanData sanitizes every curatable field of every record. Records are
// mutated in place; only the ones with at least one rewritten field are
// returned, in input order. A malformed record fails the whole batch before
// anything is modified.
func CleanData[T model.CurationTarget](c *DataCleaner, records []T) (Result[T], error) {
	result := Result[T]{
		Examined: len(records),
		Changed:  make([]T, 0),
	}
	if len(records) == 0 {
		return result, nil
	}
	if err := ValidateRecords(records); err != nil {
		return result, err
	}
	result.Kind = records[0].Kind()

	perRecord, err := cleanAll(c, records)
	if err != nil {
		return result, err
	}

	for i, operations := range perRecord {
		if len(operations) == 0 {
			continue
		}
		result.Changed = append(result.Changed, records[i])
		result.Operations = append(result.Operations, operations...)
	}

	c.logger.Info("Cleaned records",
		zap.String("kind", string(result.Kind)),
		zap.Int("recordsExamined", result.Examined),
		zap.Int("recordsChanged", len(result.Changed)),
		zap.Int("fieldsChanged", len(result.Operations)))

	return result, nil
}

// ValidateRecords checks that every record is non-nil and declares usable
// field accessors
func ValidateRecords[T model.CurationTarget](records []T) error {
	for i, record := range records {
		if isNil(record) {
			return fmt.Errorf("%w: nil record at index %d", model.ErrMalformedRecord, i)
		}
		for _, field := range record.CuratableFields() {
			if !field.Valid() {
				return fmt.Errorf("%w: %s record %d (index %d) declares field %q without accessor",
					model.ErrMalformedRecord, record.Kind(), record.RecordKey(), i, field.Name)
			}
		}
	}
	return nil
}

// isNil catches both a nil interface and a typed nil pointer held in one
func isNil(record model.CurationTarget) bool {
	if record == nil {
		return true
	}
	v := reflect.ValueOf(record)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// cleanAll returns the operations performed on each record, indexed like records.
// Large batches are sharded across goroutines; each shard owns a disjoint
// index range so no locking is needed.
func cleanAll[T model.CurationTarget](c *DataCleaner, records []T) ([][]model.CleaningOperation, error) {
	perRecord := make([][]model.CleaningOperation, len(records))

	if c.workers <= 1 || len(records) <= c.shardSize {
		for i, record := range records {
			perRecord[i] = cleanRecord(record, c.sanitize)
		}
		return perRecord, nil
	}

	var g errgroup.Group
	g.SetLimit(c.workers)

	shards := 0
	for start := 0; start < len(records); start += c.shardSize {
		end := start + c.shardSize
		if end > len(records) {
			end = len(records)
		}
		shards++

		g.Go(func() error {
			for i := start; i < end; i++ {
				perRecord[i] = cleanRecord(records[i], c.sanitize)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to clean records: %w", err)
	}

	c.logger.Debug("Cleaned batch in shards",
		zap.Int("records", len(records)),
		zap.Int("shards", shards),
		zap.Int("workers", c.workers))

	return perRecord, nil
}
