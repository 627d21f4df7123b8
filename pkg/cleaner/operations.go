// pkg/cleaner/operations.go
package cleaner

import (
	"strings"
	"time"
	"unicode"

	"github.com/David-Botos/theatrical-curation/pkg/model"
	"github.com/David-Botos/theatrical-curation/pkg/sanitizer"
)

// Cleaning reasons recorded with each sanitize operation
const (
	ReasonEntities   = "html_entities"
	ReasonMarkup     = "markup"
	ReasonControl    = "control_characters"
	ReasonNormalized = "unicode_normalization"
	ReasonWhitespace = "whitespace"
)

// cleanRecord sanitizes each non-NULL curatable field of a record in place
// and returns one operation per rewritten field
func cleanRecord(record model.CurationTarget, sanitize sanitizer.Func) []model.CleaningOperation {
	var operations []model.CleaningOperation

	table := ""
	if md, err := model.MetadataFor(record.Kind()); err == nil {
		table = md.Table
	}

	for _, field := range record.CuratableFields() {
		original, ok := field.Get()
		if !ok {
			// NULL stays NULL
			continue
		}

		cleaned := sanitize(original)
		if cleaned == original {
			continue
		}

		field.Set(cleaned)
		operations = append(operations, model.CleaningOperation{
			Kind:              record.Kind(),
			TableName:         table,
			ColumnName:        field.Name,
			OriginalValue:     original,
			NewValue:          cleaned,
			RecordKey:         record.RecordKey(),
			CleaningOperation: model.OperationSanitize,
			CleaningReason:    reasonFor(original),
			CleanedAt:         time.Now().UTC(),
		})
	}

	return operations
}

// reasonFor names the most significant kind of noise found in a value
func reasonFor(original string) string {
	switch {
	case strings.Contains(original, "&") && strings.Contains(original, ";"):
		return ReasonEntities
	case strings.ContainsAny(original, "<>{}[]|\\^~`"):
		return ReasonMarkup
	case strings.IndexFunc(original, isNoise) >= 0:
		return ReasonControl
	case strings.IndexFunc(original, unicode.IsMark) >= 0:
		return ReasonNormalized
	default:
		return ReasonWhitespace
	}
}

func isNoise(r rune) bool {
	if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.IsControl(r) || unicode.Is(unicode.Cf, r) || r == unicode.ReplacementChar
}
