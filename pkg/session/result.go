package session

import (
	"errors"
	"time"

	"github.com/David-Botos/theatrical-curation/pkg/model"
	"github.com/David-Botos/theatrical-curation/pkg/resolver"
)

// CurationResult is the outcome of curating one kind
type CurationResult[T model.CurationTarget] struct {
	JobID      string
	Kind       model.Kind
	Examined   int
	Changed    []T // Only records with at least one rewritten field
	Operations []model.CleaningOperation
	DryRun     bool
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}

func newCurationResult[T model.CurationTarget](job CurationJob) *CurationResult[T] {
	return &CurationResult[T]{
		JobID:     job.ID,
		Kind:      job.Kind,
		Changed:   make([]T, 0),
		DryRun:    job.DryRun,
		StartTime: time.Now(),
	}
}

// ChangedCount returns the number of changed records
func (r *CurationResult[T]) ChangedCount() int {
	return len(r.Changed)
}

// Complete marks the result as complete and calculates duration
func (r *CurationResult[T]) Complete() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
}

// Counts summarizes the result without the records
func (r *CurationResult[T]) Counts() KindCounts {
	return KindCounts{
		Kind:       r.Kind,
		Examined:   r.Examined,
		Changed:    len(r.Changed),
		Operations: len(r.Operations),
		DryRun:     r.DryRun,
		Duration:   r.Duration,
	}
}

// RoleResult is the outcome of a role consolidation pass
type RoleResult struct {
	CurationResult[*model.Role]
	Similar    int // Records belonging to a cluster of two or more spellings
	Clusters   []resolver.Cluster
	Dictionary resolver.Dictionary
}

// KindCounts are the per-kind numbers reported by a run
type KindCounts struct {
	Kind       model.Kind    `json:"kind" yaml:"kind"`
	Examined   int           `json:"examined" yaml:"examined"`
	Changed    int           `json:"changed" yaml:"changed"`
	Operations int           `json:"operations" yaml:"operations"`
	DryRun     bool          `json:"dryRun" yaml:"dryRun"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
	Error      string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary represents the outcome of curating several kinds in one run
type Summary struct {
	RunID         string        `json:"runId" yaml:"runId"`
	Kinds         []KindCounts  `json:"kinds" yaml:"kinds"`
	TotalExamined int           `json:"totalExamined" yaml:"totalExamined"`
	TotalChanged  int           `json:"totalChanged" yaml:"totalChanged"`
	FailedKinds   int           `json:"failedKinds" yaml:"failedKinds"`
	StartTime     time.Time     `json:"startTime" yaml:"startTime"`
	EndTime       time.Time     `json:"endTime" yaml:"endTime"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
	errs          []error
}

// NewSummary initializes a new summary
func NewSummary(runID string) *Summary {
	return &Summary{
		RunID:     runID,
		Kinds:     make([]KindCounts, 0),
		StartTime: time.Now(),
	}
}

// AddKind incorporates the counts of one kind
func (s *Summary) AddKind(counts KindCounts) {
	s.Kinds = append(s.Kinds, counts)
	s.TotalExamined += counts.Examined
	s.TotalChanged += counts.Changed
}

// AddFailure records a kind that could not be curated
func (s *Summary) AddFailure(kind model.Kind, err error) {
	s.Kinds = append(s.Kinds, KindCounts{Kind: kind, Error: err.Error()})
	s.FailedKinds++
	s.errs = append(s.errs, err)
}

// Err returns every recorded failure joined, or nil
func (s *Summary) Err() error {
	return errors.Join(s.errs...)
}

// Complete marks the run as complete and calculates duration
func (s *Summary) Complete() {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
}
