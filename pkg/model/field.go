package model

import "database/sql"

// Field is a named, curatable text field of a record.
// The name matches the storage column the value is persisted to.
type Field struct {
	Name string
	get  func() (string, bool)
	set  func(string)
}

// Text returns a field accessor for a non-nullable text value
func Text(name string, value *string) Field {
	if value == nil {
		return Field{Name: name}
	}
	return Field{
		Name: name,
		get:  func() (string, bool) { return *value, true },
		set:  func(s string) { *value = s },
	}
}

// NullText returns a field accessor for a nullable text value.
// NULL values report ok=false and are never rewritten.
func NullText(name string, value *sql.NullString) Field {
	if value == nil {
		return Field{Name: name}
	}
	return Field{
		Name: name,
		get:  func() (string, bool) { return value.String, value.Valid },
		set: func(s string) {
			value.String = s
			value.Valid = true
		},
	}
}

// Valid reports whether the field carries a name and both accessors
func (f Field) Valid() bool {
	return f.Name != "" && f.get != nil && f.set != nil
}

// Get returns the current value and whether it is non-NULL
func (f Field) Get() (string, bool) {
	if f.get == nil {
		return "", false
	}
	return f.get()
}

// Set replaces the current value
func (f Field) Set(value string) {
	if f.set != nil {
		f.set(value)
	}
}

// SQLValue returns the value as a database argument (nil for NULL)
func (f Field) SQLValue() interface{} {
	value, ok := f.Get()
	if !ok {
		return nil
	}
	return value
}
