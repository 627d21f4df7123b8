package resolver

import (
	"encoding/json"
	"sort"
)

// Correction maps one misspelled variant to its canonical value
type Correction struct {
	Variant   string `json:"variant" yaml:"variant"`
	Canonical string `json:"canonical" yaml:"canonical"`
}

// Dictionary maps non-canonical role strings to their canonical form.
// It is immutable once built; canonical strings are never keys.
type Dictionary struct {
	entries map[string]string
}

// NewDictionary copies the given variant -> canonical mapping. Entries that
// map a value to itself are dropped.
func NewDictionary(corrections map[string]string) Dictionary {
	entries := make(map[string]string, len(corrections))
	for variant, canonical := range corrections {
		if variant == canonical {
			continue
		}
		entries[variant] = canonical
	}
	return Dictionary{entries: entries}
}

// Lookup returns the canonical value for a variant
func (d Dictionary) Lookup(variant string) (string, bool) {
	canonical, ok := d.entries[variant]
	return canonical, ok
}

// Len returns the number of corrections
func (d Dictionary) Len() int {
	return len(d.entries)
}

// Entries returns the corrections sorted by variant
func (d Dictionary) Entries() []Correction {
	corrections := make([]Correction, 0, len(d.entries))
	for variant, canonical := range d.entries {
		corrections = append(corrections, Correction{Variant: variant, Canonical: canonical})
	}
	sort.Slice(corrections, func(i, j int) bool {
		return corrections[i].Variant < corrections[j].Variant
	})
	return corrections
}

// Map returns a copy of the mapping
func (d Dictionary) Map() map[string]string {
	out := make(map[string]string, len(d.entries))
	for variant, canonical := range d.entries {
		out[variant] = canonical
	}
	return out
}

// MarshalJSON encodes the dictionary as a variant -> canonical object
func (d Dictionary) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Map())
}

// UnmarshalJSON decodes a variant -> canonical object
func (d *Dictionary) UnmarshalJSON(data []byte) error {
	var corrections map[string]string
	if err := json.Unmarshal(data, &corrections); err != nil {
		return err
	}
	*d = NewDictionary(corrections)
	return nil
}

// MarshalYAML encodes the dictionary as a variant -> canonical mapping
func (d Dictionary) MarshalYAML() (interface{}, error) {
	return d.Map(), nil
}
