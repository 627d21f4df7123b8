package model

import (
	"fmt"
	"strings"
)

// TableMetadata describes where a record kind is stored
type TableMetadata struct {
	Kind      Kind     // Record kind stored in the table
	Table     string   // Table name
	KeyColumn string   // Column holding the record identity
	Columns   []string // All columns read by fetch-all, key first
}

var tables = map[Kind]TableMetadata{
	KindContribution: {
		Kind:      KindContribution,
		Table:     "contributions",
		KeyColumn: "id",
		Columns:   []string{"id", "person_id", "production_id", "role_id", "sub_role"},
	},
	KindOrganizer: {
		Kind:      KindOrganizer,
		Table:     "organizers",
		KeyColumn: "id",
		Columns:   []string{"id", "name", "address", "town", "postcode", "phone", "email", "doy"},
	},
	KindPerson: {
		Kind:      KindPerson,
		Table:     "persons",
		KeyColumn: "id",
		Columns:   []string{"id", "fullname", "description", "bio", "hair_color", "eye_color", "height", "weight"},
	},
	KindProduction: {
		Kind:      KindProduction,
		Table:     "productions",
		KeyColumn: "id",
		Columns:   []string{"id", "organizer_id", "title", "description", "producer", "duration"},
	},
	KindRole: {
		Kind:      KindRole,
		Table:     "roles",
		KeyColumn: "id",
		Columns:   []string{"id", "value"},
	},
	KindVenue: {
		Kind:      KindVenue,
		Table:     "venues",
		KeyColumn: "id",
		Columns:   []string{"id", "title", "address"},
	},
}

// MetadataFor returns the table metadata of a kind
func MetadataFor(kind Kind) (TableMetadata, error) {
	md, ok := tables[kind]
	if !ok {
		return TableMetadata{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return md, nil
}

// HasColumn reports whether the table declares a column (case-insensitive)
func (tm TableMetadata) HasColumn(name string) bool {
	for _, col := range tm.Columns {
		if strings.EqualFold(col, name) {
			return true
		}
	}
	return false
}

// SelectList returns the comma separated column list for queries
func (tm TableMetadata) SelectList() string {
	return strings.Join(tm.Columns, ", ")
}
