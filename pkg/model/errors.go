package model

import "errors"

var (
	// ErrMalformedRecord is returned when a record declares a curatable
	// field without a usable accessor. It is an integration bug.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrUnknownKind is returned for record kinds the system does not know
	ErrUnknownKind = errors.New("unknown record kind")

	// ErrNilCollaborator is returned when a session is started without
	// a fetch or update function
	ErrNilCollaborator = errors.New("collaborator cannot be nil")
)
