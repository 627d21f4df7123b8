package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/theatrical-curation/pkg/model"
)

// KindRunner curates a single kind and reports its counts
type KindRunner struct {
	Kind model.Kind
	Run  func(ctx context.Context) (KindCounts, error)
}

// GenericRunner wraps RunGeneric for use with RunAll
func GenericRunner[T model.CurationTarget](s *Session, kind model.Kind, fetch FetchFunc[T], update UpdateFunc[T]) KindRunner {
	return KindRunner{
		Kind: kind,
		Run: func(ctx context.Context) (KindCounts, error) {
			result, err := RunGeneric(ctx, s, kind, fetch, update)
			if err != nil {
				return KindCounts{}, err
			}
			return result.Counts(), nil
		},
	}
}

// RoleRunner wraps RunRoleConsolidation for use with RunAll
func RoleRunner(s *Session, fetch FetchFunc[*model.Role], update UpdateFunc[*model.Role]) KindRunner {
	return KindRunner{
		Kind: model.KindRole,
		Run: func(ctx context.Context) (KindCounts, error) {
			result, err := RunRoleConsolidation(ctx, s, fetch, update)
			if err != nil {
				return KindCounts{}, err
			}
			return result.Counts(), nil
		},
	}
}

// RunAll runs each runner in order. A failing kind is recorded and the run
// moves on; cancellation is only observed between kinds. The returned error
// joins every failure.
func (s *Session) RunAll(ctx context.Context, runners ...KindRunner) (*Summary, error) {
	summary := NewSummary(s.runID)

	for _, runner := range runners {
		if err := ctx.Err(); err != nil {
			summary.Complete()
			return summary, fmt.Errorf("curation cancelled before %s: %w", runner.Kind, err)
		}

		counts, err := runner.Run(ctx)
		if err != nil {
			s.logger.Warn("Skipping kind after failure",
				zap.String("kind", string(runner.Kind)),
				zap.Error(err))
			summary.AddFailure(runner.Kind, err)
			continue
		}
		summary.AddKind(counts)
	}

	summary.Complete()

	s.logger.Info("Curation run completed",
		zap.String("runId", summary.RunID),
		zap.Int("kinds", len(runners)),
		zap.Int("failedKinds", summary.FailedKinds),
		zap.Int("recordsExamined", summary.TotalExamined),
		zap.Int("recordsChanged", summary.TotalChanged),
		zap.Duration("duration", summary.Duration))

	return summary, summary.Err()
}
