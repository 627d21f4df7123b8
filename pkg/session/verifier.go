package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/theatrical-curation/pkg/cleaner"
	"github.com/David-Botos/theatrical-curation/pkg/model"
)

// VerificationReport contains the results of re-checking a curated kind
type VerificationReport struct {
	Kind             model.Kind    `json:"kind" yaml:"kind"`
	VerificationTime time.Time     `json:"verificationTime" yaml:"verificationTime"`
	Examined         int           `json:"examined" yaml:"examined"`
	StillDirty       int           `json:"stillDirty" yaml:"stillDirty"`
	DirtyKeys        []int64       `json:"dirtyKeys,omitempty" yaml:"dirtyKeys,omitempty"`
	Duration         time.Duration `json:"duration" yaml:"duration"`
}

// Clean reports whether no record would change on another pass
func (r VerificationReport) Clean() bool {
	return r.StillDirty == 0
}

// maxReportedKeys bounds the keys listed in a verification report
const maxReportedKeys = 20

// Verify re-fetches a kind and reports how many records a further pass would
// change. After a persisted run this is zero. Fetched records are cleaned in
// memory only and discarded.
func Verify[T model.CurationTarget](
	ctx context.Context,
	s *Session,
	kind model.Kind,
	fetch FetchFunc[T],
) (VerificationReport, error) {
	report := VerificationReport{
		Kind:             kind,
		VerificationTime: time.Now(),
	}
	if fetch == nil {
		return report, fmt.Errorf("%w: fetch is required", model.ErrNilCollaborator)
	}

	s.logger.Info("Verifying curated records", zap.String("kind", string(kind)))

	records, err := fetch(ctx, kind)
	if err != nil {
		return report, fmt.Errorf("failed to fetch %s records: %w", kind, err)
	}

	cleaned, err := cleaner.CleanData(s.cleaner, records)
	if err != nil {
		return report, fmt.Errorf("failed to verify %s records: %w", kind, err)
	}

	report.Examined = cleaned.Examined
	report.StillDirty = cleaned.ChangedCount()
	for i, record := range cleaned.Changed {
		if i == maxReportedKeys {
			break
		}
		report.DirtyKeys = append(report.DirtyKeys, record.RecordKey())
	}
	report.Duration = time.Since(report.VerificationTime)

	if report.Clean() {
		s.logger.Info("Verification successful",
			zap.String("kind", string(kind)),
			zap.Int("count", report.Examined))
	} else {
		s.logger.Warn("Records still need curation",
			zap.String("kind", string(kind)),
			zap.Int("examined", report.Examined),
			zap.Int("stillDirty", report.StillDirty))
	}

	return report, nil
}
