package model

import (
	"time"
)

// Operation names recorded in the curation log
const (
	OperationSanitize    = "sanitize"
	OperationConsolidate = "role_consolidation"
	OperationOrphan      = "orphan_removal"
)

// CleaningOperation represents a single field rewrite performed by curation
type CleaningOperation struct {
	RunID             string    `db:"run_id" json:"runId" yaml:"runId"`                     // Curation run that produced the change
	Kind              Kind      `db:"kind" json:"kind" yaml:"kind"`                         // Record kind
	TableName         string    `db:"table_name" json:"table" yaml:"table"`                 // Table name
	ColumnName        string    `db:"column_name" json:"column" yaml:"column"`              // Column that was cleaned
	OriginalValue     string    `db:"original_value" json:"original" yaml:"original"`       // Value before curation
	NewValue          string    `db:"new_value" json:"new" yaml:"new"`                      // Value after curation
	RecordKey         int64     `db:"record_key" json:"recordKey" yaml:"recordKey"`         // Identity of the rewritten record
	CleaningOperation string    `db:"cleaning_operation" json:"operation" yaml:"operation"` // Type of cleaning performed (e.g. "sanitize")
	CleaningReason    string    `db:"cleaning_reason" json:"reason" yaml:"reason"`          // Reason for cleaning (e.g. "markup_or_whitespace")
	CleanedAt         time.Time `db:"cleaned_at" json:"cleanedAt" yaml:"cleanedAt"`         // When the cleaning occurred
}

// WithRunID stamps the operation with a run identifier
func (op CleaningOperation) WithRunID(runID string) CleaningOperation {
	op.RunID = runID
	return op
}
