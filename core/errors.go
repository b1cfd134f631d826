package core

import "github.com/pkg/errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("object was modified by another request")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// PersistenceError wraps any failure of the underlying store.
type PersistenceError struct {
	Op  string
	Err error
}

// NewPersistenceError returns nil if err is nil.
// ErrNotFound, ErrConflict and validation errors are domain outcomes and are passed through untouched.
func NewPersistenceError(err error, op string) error {
	if err == nil {
		return nil
	}
	switch errors.Cause(err) {
	case ErrNotFound, ErrConflict:
		return err
	}
	switch errors.Cause(err).(type) {
	case *PersistenceError, *ValidationError:
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

func (err *PersistenceError) Error() string {
	return err.Op + ": " + err.Err.Error()
}

func (err *PersistenceError) Unwrap() error { return err.Err }

func IsNotFound(err error) bool { return errors.Cause(err) == ErrNotFound }

func IsConflict(err error) bool { return errors.Cause(err) == ErrConflict }

func IsPersistence(err error) bool {
	_, ok := errors.Cause(err).(*PersistenceError)
	return ok
}

// StaleUpdateError resolves a versioned update that touched no row:
// the row is either gone (ErrNotFound) or was changed by someone else (ErrConflict).
func StaleUpdateError(exists bool, entity string) error {
	if !exists {
		return errors.Wrap(ErrNotFound, entity)
	}
	return errors.Wrap(ErrConflict, entity)
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
