// Package report renders curation outcomes for people and scripts.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/David-Botos/theatrical-curation/pkg/resolver"
	"github.com/David-Botos/theatrical-curation/pkg/session"
)

// Format is an output encoding
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat converts a flag value into a Format
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(name)) {
	case FormatYAML, "yml", "":
		return FormatYAML, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", name)
	}
}

// ClusterReport is one group of similar spellings
type ClusterReport struct {
	Canonical string             `json:"canonical" yaml:"canonical"`
	Records   int                `json:"records" yaml:"records"`
	Variants  []resolver.Variant `json:"variants" yaml:"variants"`
}

// RoleReport describes a role consolidation pass
type RoleReport struct {
	JobID      string              `json:"jobId" yaml:"jobId"`
	Examined   int                 `json:"examined" yaml:"examined"`
	Similar    int                 `json:"similar" yaml:"similar"`
	Changed    int                 `json:"changed" yaml:"changed"`
	DryRun     bool                `json:"dryRun" yaml:"dryRun"`
	Duration   time.Duration       `json:"duration" yaml:"duration"`
	Clusters   []ClusterReport     `json:"clusters" yaml:"clusters"`
	Dictionary resolver.Dictionary `json:"dictionary" yaml:"dictionary"`
}

// NewRoleReport summarizes a role result without the records
func NewRoleReport(result *session.RoleResult) RoleReport {
	clusters := make([]ClusterReport, len(result.Clusters))
	for i, cluster := range result.Clusters {
		clusters[i] = ClusterReport{
			Canonical: cluster.Canonical(),
			Records:   cluster.Records(),
			Variants:  cluster.Variants,
		}
	}

	return RoleReport{
		JobID:      result.JobID,
		Examined:   result.Examined,
		Similar:    result.Similar,
		Changed:    result.ChangedCount(),
		DryRun:     result.DryRun,
		Duration:   result.Duration,
		Clusters:   clusters,
		Dictionary: result.Dictionary,
	}
}

// OrphanEntry is one orphaned contribution
type OrphanEntry struct {
	ContributionID    int64 `json:"contributionId" yaml:"contributionId"`
	PersonID          int64 `json:"personId" yaml:"personId"`
	ProductionID      int64 `json:"productionId" yaml:"productionId"`
	MissingPerson     bool  `json:"missingPerson" yaml:"missingPerson"`
	MissingProduction bool  `json:"missingProduction" yaml:"missingProduction"`
}

// OrphanReport describes an orphan removal pass
type OrphanReport struct {
	JobID    string        `json:"jobId" yaml:"jobId"`
	Examined int           `json:"examined" yaml:"examined"`
	Removed  int64         `json:"removed" yaml:"removed"`
	DryRun   bool          `json:"dryRun" yaml:"dryRun"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Orphans  []OrphanEntry `json:"orphans" yaml:"orphans"`
}

// NewOrphanReport summarizes an orphan result
func NewOrphanReport(result *session.OrphanResult) OrphanReport {
	orphans := make([]OrphanEntry, len(result.Orphans))
	for i, orphan := range result.Orphans {
		orphans[i] = OrphanEntry{
			ContributionID:    orphan.Contribution.ID,
			PersonID:          orphan.Contribution.PersonID,
			ProductionID:      orphan.Contribution.ProductionID,
			MissingPerson:     orphan.MissingPerson,
			MissingProduction: orphan.MissingProduction,
		}
	}

	return OrphanReport{
		JobID:    result.JobID,
		Examined: result.Examined,
		Removed:  result.Removed,
		DryRun:   result.DryRun,
		Duration: result.Duration,
		Orphans:  orphans,
	}
}

// CurationReport is the outcome of a curate run with optional verification
type CurationReport struct {
	Summary      *session.Summary              `json:"summary" yaml:"summary"`
	Verification []session.VerificationReport `json:"verification,omitempty" yaml:"verification,omitempty"`
}

// Write encodes a value in the requested format
func Write(w io.Writer, format Format, v interface{}) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// WriteDictionary exports a correction dictionary to a file. The format
// follows the file extension and defaults to YAML.
func WriteDictionary(path string, dictionary resolver.Dictionary) error {
	format := FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = FormatJSON
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dictionary file: %w", err)
	}

	if err := Write(file, format, dictionary); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
