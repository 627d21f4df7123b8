package resolver

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Options tune how aggressively role values are clustered
type Options struct {
	CharsPerEdit   int // One allowed edit per this many characters of the shorter string
	MinFuzzyLength int // Strings shorter than this get no edit budget, not the usual minimum of one, so they only cluster with case-only variants
	MaxEdits       int // Upper bound on allowed edits regardless of length
	Workers        int // Goroutines computing pairwise distances (0 means runtime.NumCPU())
}

// DefaultOptions returns the thresholds used in production runs
func DefaultOptions() Options {
	return Options{
		CharsPerEdit:   4,
		MinFuzzyLength: 4,
		MaxEdits:       2,
	}
}

// Validate checks the options for consistency
func (o Options) Validate() error {
	if o.CharsPerEdit <= 0 {
		return errors.New("chars per edit must be positive")
	}
	if o.MinFuzzyLength < 0 {
		return errors.New("min fuzzy length cannot be negative")
	}
	if o.MaxEdits < 0 {
		return errors.New("max edits cannot be negative")
	}
	if o.Workers < 0 {
		return errors.New("workers cannot be negative")
	}
	return nil
}

// AllowedEdits returns the edit budget for a pair whose shorter string has minLen runes
func (o Options) AllowedEdits(minLen int) int {
	if minLen < o.MinFuzzyLength {
		return 0
	}
	allowed := minLen / o.CharsPerEdit
	if allowed < 1 {
		allowed = 1
	}
	if allowed > o.MaxEdits {
		allowed = o.MaxEdits
	}
	return allowed
}

// Distance returns the case-insensitive Levenshtein distance between a and b
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(strings.ToLower(a), strings.ToLower(b))
}

// term is a distinct role string prepared for comparison
type term struct {
	value   string
	folded  string
	runeLen int
}

func newTerm(value string) term {
	folded := strings.ToLower(value)
	return term{
		value:   value,
		folded:  folded,
		runeLen: utf8.RuneCountInString(folded),
	}
}

// similar reports whether two terms are within the edit budget of each other
func (o Options) similar(a, b term) bool {
	if a.folded == b.folded {
		return true
	}

	minLen, diff := a.runeLen, b.runeLen-a.runeLen
	if b.runeLen < minLen {
		minLen = b.runeLen
		diff = -diff
	}

	allowed := o.AllowedEdits(minLen)
	if allowed == 0 || diff > allowed {
		return false
	}
	return levenshtein.ComputeDistance(a.folded, b.folded) <= allowed
}
