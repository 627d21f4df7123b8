package model

import (
	"database/sql"
	"fmt"
	"strings"
)

// Kind identifies a record kind in the theatrical dataset
type Kind string

const (
	KindContribution Kind = "contribution"
	KindOrganizer    Kind = "organizer"
	KindPerson       Kind = "person"
	KindProduction   Kind = "production"
	KindRole         Kind = "role"
	KindVenue        Kind = "venue"
)

// AllKinds lists every curatable kind in the order a full curation visits them
func AllKinds() []Kind {
	return []Kind{
		KindContribution,
		KindOrganizer,
		KindPerson,
		KindProduction,
		KindRole,
		KindVenue,
	}
}

// ParseKind converts a user supplied name into a Kind
func ParseKind(name string) (Kind, error) {
	normalized := Kind(strings.ToLower(strings.TrimSpace(name)))
	for _, kind := range AllKinds() {
		if kind == normalized {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// CurationTarget is implemented by every record kind that exposes
// text fields eligible for sanitization.
type CurationTarget interface {
	// RecordKey returns the storage identity; curation never changes it
	RecordKey() int64
	// Kind returns the record kind
	Kind() Kind
	// CuratableFields returns accessors for the fields to sanitize
	CuratableFields() []Field
}

// Contribution links a person to a production in a given role
type Contribution struct {
	ID           int64          `db:"id"`
	PersonID     int64          `db:"person_id"`
	ProductionID int64          `db:"production_id"`
	RoleID       int64          `db:"role_id"`
	SubRole      sql.NullString `db:"sub_role"`
}

func (c *Contribution) RecordKey() int64 { return c.ID }
func (c *Contribution) Kind() Kind       { return KindContribution }

func (c *Contribution) CuratableFields() []Field {
	return []Field{NullText("sub_role", &c.SubRole)}
}

// Organizer is a company or individual producing shows
type Organizer struct {
	ID       int64          `db:"id"`
	Name     string         `db:"name"`
	Address  sql.NullString `db:"address"`
	Town     sql.NullString `db:"town"`
	Postcode sql.NullString `db:"postcode"`
	Phone    sql.NullString `db:"phone"`
	Email    sql.NullString `db:"email"`
	Doy      sql.NullString `db:"doy"`
}

func (o *Organizer) RecordKey() int64 { return o.ID }
func (o *Organizer) Kind() Kind       { return KindOrganizer }

func (o *Organizer) CuratableFields() []Field {
	return []Field{
		Text("name", &o.Name),
		NullText("address", &o.Address),
		NullText("town", &o.Town),
		NullText("postcode", &o.Postcode),
		NullText("phone", &o.Phone),
		NullText("email", &o.Email),
		NullText("doy", &o.Doy),
	}
}

// Person is an artist or crew member
type Person struct {
	ID          int64          `db:"id"`
	Fullname    string         `db:"fullname"`
	Description sql.NullString `db:"description"`
	Bio         sql.NullString `db:"bio"`
	HairColor   sql.NullString `db:"hair_color"`
	EyeColor    sql.NullString `db:"eye_color"`
	Height      sql.NullString `db:"height"`
	Weight      sql.NullString `db:"weight"`
}

func (p *Person) RecordKey() int64 { return p.ID }
func (p *Person) Kind() Kind       { return KindPerson }

func (p *Person) CuratableFields() []Field {
	return []Field{
		Text("fullname", &p.Fullname),
		NullText("description", &p.Description),
		NullText("bio", &p.Bio),
		NullText("hair_color", &p.HairColor),
		NullText("eye_color", &p.EyeColor),
		NullText("height", &p.Height),
		NullText("weight", &p.Weight),
	}
}

// Production is a staged work
type Production struct {
	ID          int64          `db:"id"`
	OrganizerID sql.NullInt64  `db:"organizer_id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	Producer    sql.NullString `db:"producer"`
	Duration    sql.NullString `db:"duration"`
}

func (p *Production) RecordKey() int64 { return p.ID }
func (p *Production) Kind() Kind       { return KindProduction }

func (p *Production) CuratableFields() []Field {
	return []Field{
		Text("title", &p.Title),
		NullText("description", &p.Description),
		NullText("producer", &p.Producer),
		NullText("duration", &p.Duration),
	}
}

// Role is a categorical role value such as "Actor" or "Director"
type Role struct {
	ID    int64  `db:"id"`
	Value string `db:"value"`
}

func (r *Role) RecordKey() int64 { return r.ID }
func (r *Role) Kind() Kind       { return KindRole }

func (r *Role) CuratableFields() []Field {
	return []Field{Text("value", &r.Value)}
}

// Venue is a place where productions are staged
type Venue struct {
	ID      int64          `db:"id"`
	Title   sql.NullString `db:"title"`
	Address sql.NullString `db:"address"`
}

func (v *Venue) RecordKey() int64 { return v.ID }
func (v *Venue) Kind() Kind       { return KindVenue }

func (v *Venue) CuratableFields() []Field {
	return []Field{
		NullText("title", &v.Title),
		NullText("address", &v.Address),
	}
}
