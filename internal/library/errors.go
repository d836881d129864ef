package library

import (
	"errors"
	"fmt"

	"github.com/joestump/link-library/internal/importer"
)

var (
	// ErrAuthorization is the parent of every access failure.
	ErrAuthorization = errors.New("not authorized")

	// ErrUnauthenticated means the caller presented no valid session.
	ErrUnauthenticated = fmt.Errorf("%w: no valid session", ErrAuthorization)

	// ErrNotOwned means the library or item does not exist or belongs to
	// another user. Callers cannot tell the two cases apart.
	ErrNotOwned = fmt.Errorf("%w: not found or access denied", ErrAuthorization)

	// ErrEmptyImport is returned when import text yields no records.
	ErrEmptyImport = importer.ErrEmptyImport
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// PersistenceError wraps a failed store call.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
