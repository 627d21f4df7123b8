package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/theatrical-curation/pkg/model"
)

// KindMetrics tracks metrics for a specific record kind
type KindMetrics struct {
	Kind       model.Kind
	Runs       int
	Examined   int
	Changed    int
	Operations int
	Failures   int
	Elapsed    time.Duration
}

// Metrics tracks curation activity across every run of a session
type Metrics struct {
	mu            sync.Mutex
	logger        *zap.Logger
	StartTime     time.Time
	KindMetrics   map[model.Kind]*KindMetrics
	TotalExamined int
	TotalChanged  int
	TotalOps      int
	TotalRemoved  int64
	Failures      int
}

// NewMetrics creates a new Metrics instance
func NewMetrics(logger *zap.Logger) *Metrics {
	return &Metrics{
		logger:      logger,
		StartTime:   time.Now(),
		KindMetrics: make(map[model.Kind]*KindMetrics),
	}
}

// kindLocked returns the per-kind tracker, creating it on first use.
// Callers must hold mu.
func (m *Metrics) kindLocked(kind model.Kind) *KindMetrics {
	km, ok := m.KindMetrics[kind]
	if !ok {
		km = &KindMetrics{Kind: kind}
		m.KindMetrics[kind] = km
	}
	return km
}

// RecordKind records the counts of a completed curation pass
func (m *Metrics) RecordKind(counts KindCounts) {
	m.mu.Lock()
	defer m.mu.Unlock()

	km := m.kindLocked(counts.Kind)
	km.Runs++
	km.Examined += counts.Examined
	km.Changed += counts.Changed
	km.Operations += counts.Operations
	km.Elapsed += counts.Duration

	m.TotalExamined += counts.Examined
	m.TotalChanged += counts.Changed
	m.TotalOps += counts.Operations

	if m.logger != nil {
		m.logger.Info("Curation pass completed",
			zap.String("kind", string(counts.Kind)),
			zap.Int("recordsExamined", counts.Examined),
			zap.Int("recordsChanged", counts.Changed),
			zap.Int("operations", counts.Operations),
			zap.Bool("dryRun", counts.DryRun),
			zap.Duration("duration", counts.Duration))
	}
}

// RecordRemoved records deleted orphan rows
func (m *Metrics) RecordRemoved(kind model.Kind, removed int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRemoved += removed
	m.kindLocked(kind).Runs++
}

// RecordFailure records a failed curation pass
func (m *Metrics) RecordFailure(kind model.Kind, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Failures++
	m.kindLocked(kind).Failures++

	if m.logger != nil {
		m.logger.Error("Curation pass failed",
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
}

// Snapshot returns a copy of the per-kind metrics
func (m *Metrics) Snapshot() map[model.Kind]KindMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[model.Kind]KindMetrics, len(m.KindMetrics))
	for kind, km := range m.KindMetrics {
		out[kind] = *km
	}
	return out
}

// ChangeRate returns the percentage of examined records that were changed
func (m *Metrics) ChangeRate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.TotalExamined == 0 {
		return 0
	}
	return float64(m.TotalChanged) / float64(m.TotalExamined) * 100
}

// Duration returns the time since the metrics were created
func (m *Metrics) Duration() time.Duration {
	return time.Since(m.StartTime)
}
