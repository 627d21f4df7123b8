package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/theatrical-curation/pkg/model"
)

// RemoveFunc deletes contributions and returns how many rows were removed
type RemoveFunc func(ctx context.Context, contributions []*model.Contribution) (int64, error)

// Orphan is a contribution pointing at a person or production that no longer exists
type Orphan struct {
	Contribution      *model.Contribution
	MissingPerson     bool
	MissingProduction bool
}

// OrphanResult is the outcome of an orphan removal pass
type OrphanResult struct {
	JobID    string
	Examined int
	Orphans  []Orphan
	Removed  int64
	DryRun   bool
	Duration time.Duration
}

// Contributions returns the orphaned contribution records
func (r *OrphanResult) Contributions() []*model.Contribution {
	out := make([]*model.Contribution, 0, len(r.Orphans))
	for _, orphan := range r.Orphans {
		out = append(out, orphan.Contribution)
	}
	return out
}

// FindOrphanContributions returns contributions whose person or production is
// missing, in input order
func FindOrphanContributions(
	contributions []*model.Contribution,
	people []*model.Person,
	productions []*model.Production,
) []Orphan {
	personIDs := make(map[int64]struct{}, len(people))
	for _, person := range people {
		personIDs[person.ID] = struct{}{}
	}
	productionIDs := make(map[int64]struct{}, len(productions))
	for _, production := range productions {
		productionIDs[production.ID] = struct{}{}
	}

	orphans := make([]Orphan, 0)
	for _, contribution := range contributions {
		_, hasPerson := personIDs[contribution.PersonID]
		_, hasProduction := productionIDs[contribution.ProductionID]
		if hasPerson && hasProduction {
			continue
		}
		orphans = append(orphans, Orphan{
			Contribution:      contribution,
			MissingPerson:     !hasPerson,
			MissingProduction: !hasProduction,
		})
	}
	return orphans
}

// RunOrphanRemoval fetches contributions, people and productions and removes
// the contributions left without a person or production
func RunOrphanRemoval(
	ctx context.Context,
	s *Session,
	fetchContributions FetchFunc[*model.Contribution],
	fetchPeople FetchFunc[*model.Person],
	fetchProductions FetchFunc[*model.Production],
	remove RemoveFunc,
) (*OrphanResult, error) {
	if fetchContributions == nil || fetchPeople == nil || fetchProductions == nil || remove == nil {
		return nil, fmt.Errorf("%w: fetch and remove are required", model.ErrNilCollaborator)
	}

	job := s.newJob(model.KindContribution)
	start := time.Now()

	contributions, err := fetchContributions(ctx, model.KindContribution)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contribution records: %w", err)
	}
	people, err := fetchPeople(ctx, model.KindPerson)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch person records: %w", err)
	}
	productions, err := fetchProductions(ctx, model.KindProduction)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch production records: %w", err)
	}

	result := &OrphanResult{
		JobID:    job.ID,
		Examined: len(contributions),
		Orphans:  FindOrphanContributions(contributions, people, productions),
		DryRun:   job.DryRun,
	}

	if job.ShouldPersist(len(result.Orphans)) {
		removed, err := remove(ctx, result.Contributions())
		if err != nil {
			s.metrics.RecordFailure(model.KindContribution, err)
			return nil, fmt.Errorf("failed to remove orphaned contributions: %w", err)
		}
		result.Removed = removed

		if s.audit != nil {
			if err := s.audit(ctx, orphanOperations(result.Orphans, job.ID)); err != nil {
				return nil, fmt.Errorf("failed to record orphan removals: %w", err)
			}
		}
		s.metrics.RecordRemoved(model.KindContribution, removed)
	}

	result.Duration = time.Since(start)

	s.logger.Info("Orphan removal completed",
		zap.String("jobId", job.ID),
		zap.Int("contributionsExamined", result.Examined),
		zap.Int("orphans", len(result.Orphans)),
		zap.Int64("removed", result.Removed),
		zap.Bool("dryRun", job.DryRun))

	return result, nil
}

func orphanOperations(orphans []Orphan, runID string) []model.CleaningOperation {
	now := time.Now().UTC()
	operations := make([]model.CleaningOperation, 0, len(orphans))
	for _, orphan := range orphans {
		reason := "missing_person"
		switch {
		case orphan.MissingPerson && orphan.MissingProduction:
			reason = "missing_person_and_production"
		case orphan.MissingProduction:
			reason = "missing_production"
		}

		c := orphan.Contribution
		operations = append(operations, model.CleaningOperation{
			RunID:             runID,
			Kind:              model.KindContribution,
			TableName:         "contributions",
			ColumnName:        "id",
			OriginalValue:     fmt.Sprintf("person=%d production=%d role=%d", c.PersonID, c.ProductionID, c.RoleID),
			RecordKey:         c.ID,
			CleaningOperation: model.OperationOrphan,
			CleaningReason:    reason,
			CleanedAt:         now,
		})
	}
	return operations
}
