package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/David-Botos/theatrical-curation/pkg/model"
)

// CurationJob identifies one curation pass over a record kind
type CurationJob struct {
	ID        string     // Unique run identifier, stamped on every audit row
	Kind      model.Kind // Record kind being curated
	DryRun    bool       // Compute changes without persisting them
	CreatedAt time.Time  // Job creation timestamp
}

// NewCurationJob creates a new curation job with defaults
func NewCurationJob(kind model.Kind) CurationJob {
	return CurationJob{
		ID:        uuid.New().String(),
		Kind:      kind,
		CreatedAt: time.Now(),
	}
}

// WithDryRun sets the dry-run flag and returns the modified job
func (j CurationJob) WithDryRun(dryRun bool) CurationJob {
	j.DryRun = dryRun
	return j
}

// WithRunID reuses an existing run identifier, so every kind curated in one
// run shares it
func (j CurationJob) WithRunID(runID string) CurationJob {
	if runID != "" {
		j.ID = runID
	}
	return j
}

// ShouldPersist reports whether changes may be handed to the update collaborator
func (j CurationJob) ShouldPersist(changed int) bool {
	return !j.DryRun && changed > 0
}
