package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/David-Botos/theatrical-curation/pkg/model"
)

// ErrorCategory classifies a storage failure
type ErrorCategory int

const (
	ErrorCategoryUnknown ErrorCategory = iota
	ErrorCategoryTimeout
	ErrorCategoryConnection
	ErrorCategorySchema
	ErrorCategoryConstraint
	ErrorCategoryPermission
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryUnknown:
		return "Unknown"
	case ErrorCategoryTimeout:
		return "Timeout"
	case ErrorCategoryConnection:
		return "Connection"
	case ErrorCategorySchema:
		return "Schema"
	case ErrorCategoryConstraint:
		return "Constraint"
	case ErrorCategoryPermission:
		return "Permission"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// Error is a storage failure tagged with the operation and kind involved
type Error struct {
	Op       string
	Kind     model.Kind
	Category ErrorCategory
	Err      error
}

func newStoreError(op string, kind model.Kind, err error) *Error {
	return &Error{
		Op:       op,
		Kind:     kind,
		Category: CategorizeError(err),
		Err:      err,
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s [%s]: %v", e.Op, e.Kind, e.Category, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CategorizeError determines the category of a driver error.
// Drivers disagree on error types, so classification falls back to the message.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCategoryTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "canceling statement"):
		return ErrorCategoryTimeout
	case strings.Contains(msg, "connection") ||
		strings.Contains(msg, "refused") ||
		strings.Contains(msg, "eof") ||
		strings.Contains(msg, "database is locked"):
		return ErrorCategoryConnection
	case strings.Contains(msg, "no such table") ||
		strings.Contains(msg, "no such column") ||
		strings.Contains(msg, "does not exist"):
		return ErrorCategorySchema
	case strings.Contains(msg, "constraint") ||
		strings.Contains(msg, "violates") ||
		strings.Contains(msg, "duplicate"):
		return ErrorCategoryConstraint
	case strings.Contains(msg, "permission") ||
		strings.Contains(msg, "insufficient privileges") ||
		strings.Contains(msg, "access"):
		return ErrorCategoryPermission
	default:
		return ErrorCategoryUnknown
	}
}
