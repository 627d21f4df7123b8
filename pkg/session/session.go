// Package session glues the cleaner and the role resolver to externally
// supplied fetch and update collaborators.
package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/theatrical-curation/pkg/cleaner"
	"github.com/David-Botos/theatrical-curation/pkg/model"
	"github.com/David-Botos/theatrical-curation/pkg/resolver"
)

// FetchFunc returns the complete current set of records of a kind
type FetchFunc[T model.CurationTarget] func(ctx context.Context, kind model.Kind) ([]T, error)

// UpdateFunc persists already mutated records and returns them
type UpdateFunc[T model.CurationTarget] func(ctx context.Context, records []T) ([]T, error)

// AuditFunc receives the operations of a persisted pass
type AuditFunc func(ctx context.Context, operations []model.CleaningOperation) error

// Session runs curation passes and keeps metrics across them
type Session struct {
	cleaner  *cleaner.DataCleaner
	resolver *resolver.Resolver
	logger   *zap.Logger
	metrics  *Metrics
	audit    AuditFunc
	dryRun   bool
	runID    string
}

// Option configures a Session
type Option func(*Session)

// WithDryRun computes changes without calling update, remove or audit collaborators
func WithDryRun(dryRun bool) Option {
	return func(s *Session) {
		s.dryRun = dryRun
	}
}

// WithAudit records the operations of every persisted pass
func WithAudit(audit AuditFunc) Option {
	return func(s *Session) {
		s.audit = audit
	}
}

// WithRunID makes every pass of the session share one run identifier
func WithRunID(runID string) Option {
	return func(s *Session) {
		s.runID = runID
	}
}

// New creates a new Session instance
func New(logger *zap.Logger, c *cleaner.DataCleaner, r *resolver.Resolver, opts ...Option) (*Session, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if c == nil {
		return nil, fmt.Errorf("%w: cleaner", model.ErrNilCollaborator)
	}
	if r == nil {
		return nil, fmt.Errorf("%w: resolver", model.ErrNilCollaborator)
	}

	s := &Session{
		cleaner:  c,
		resolver: r,
		logger:   logger,
		metrics:  NewMetrics(logger),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Metrics returns the session metrics
func (s *Session) Metrics() *Metrics {
	return s.metrics
}

// DryRun reports whether the session persists changes
func (s *Session) DryRun() bool {
	return s.dryRun
}

func (s *Session) newJob(kind model.Kind) CurationJob {
	return NewCurationJob(kind).WithRunID(s.runID).WithDryRun(s.dryRun)
}

// RunGeneric fetches every record of a kind, sanitizes them and persists the
// changed subset. Nothing is persisted when no record changed.
func RunGeneric[T model.CurationTarget](
	ctx context.Context,
	s *Session,
	kind model.Kind,
	fetch FetchFunc[T],
	update UpdateFunc[T],
) (*CurationResult[T], error) {
	if fetch == nil || update == nil {
		return nil, fmt.Errorf("%w: fetch and update are required", model.ErrNilCollaborator)
	}

	job := s.newJob(kind)
	result := newCurationResult[T](job)

	s.logger.Debug("Starting curation pass",
		zap.String("jobId", job.ID),
		zap.String("kind", string(kind)),
		zap.Bool("dryRun", job.DryRun))

	records, err := fetch(ctx, kind)
	if err != nil {
		s.metrics.RecordFailure(kind, err)
		return nil, fmt.Errorf("failed to fetch %s records: %w", kind, err)
	}

	cleaned, err := cleaner.CleanData(s.cleaner, records)
	if err != nil {
		s.metrics.RecordFailure(kind, err)
		return nil, fmt.Errorf("failed to clean %s records: %w", kind, err)
	}

	result.Examined = cleaned.Examined
	result.Changed = cleaned.Changed
	result.Operations = stampRunID(cleaned.Operations, job.ID)

	if err := persist(ctx, s, job, result.Changed, result.Operations, update); err != nil {
		return nil, err
	}

	result.Complete()
	s.metrics.RecordKind(result.Counts())
	return result, nil
}

// RunRoleConsolidation clusters every role value, builds the correction
// dictionary and persists the rewritten roles
func RunRoleConsolidation(
	ctx context.Context,
	s *Session,
	fetch FetchFunc[*model.Role],
	update UpdateFunc[*model.Role],
) (*RoleResult, error) {
	if fetch == nil || update == nil {
		return nil, fmt.Errorf("%w: fetch and update are required", model.ErrNilCollaborator)
	}

	job := s.newJob(model.KindRole)
	result := &RoleResult{CurationResult: *newCurationResult[*model.Role](job)}

	roles, err := fetch(ctx, model.KindRole)
	if err != nil {
		s.metrics.RecordFailure(model.KindRole, err)
		return nil, fmt.Errorf("failed to fetch role records: %w", err)
	}

	// The dictionary is only valid over the complete snapshot
	similarity := s.resolver.FindSimilar(roles)
	dictionary := similarity.Dictionary()

	before := make(map[int64]string, len(similarity.Records))
	for _, role := range similarity.Records {
		before[role.ID] = role.Value
	}
	changed := resolver.ApplyCorrections(similarity.Records, dictionary)

	result.Examined = len(roles)
	result.Similar = len(similarity.Records)
	result.Clusters = similarity.Clusters
	result.Dictionary = dictionary
	result.Changed = changed
	result.Operations = stampRunID(resolver.ConsolidationOperations(changed, before), job.ID)

	if err := persist(ctx, s, job, result.Changed, result.Operations, update); err != nil {
		return nil, err
	}

	result.Complete()
	s.metrics.RecordKind(result.Counts())
	return result, nil
}

// persist hands changed records to update and their operations to the audit sink
func persist[T model.CurationTarget](
	ctx context.Context,
	s *Session,
	job CurationJob,
	changed []T,
	operations []model.CleaningOperation,
	update UpdateFunc[T],
) error {
	if !job.ShouldPersist(len(changed)) {
		return nil
	}

	if _, err := update(ctx, changed); err != nil {
		s.metrics.RecordFailure(job.Kind, err)
		return fmt.Errorf("failed to update %s records: %w", job.Kind, err)
	}

	if s.audit != nil && len(operations) > 0 {
		if err := s.audit(ctx, operations); err != nil {
			s.metrics.RecordFailure(job.Kind, err)
			return fmt.Errorf("failed to record %s cleaning operations: %w", job.Kind, err)
		}
	}

	return nil
}

func stampRunID(operations []model.CleaningOperation, runID string) []model.CleaningOperation {
	for i := range operations {
		operations[i] = operations[i].WithRunID(runID)
	}
	return operations
}
