package store

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// Kind categorizes store failures. Every error surfaced by this package
// that maps onto the persistence contract carries one of these.
type Kind string

const (
	// KindNotFound indicates a referenced primary key is absent where the
	// operation requires existence (Update). Missing keys on Delete and
	// GetByID are defined as non-error outcomes.
	KindNotFound Kind = "NOT_FOUND"

	// KindConstraint indicates a unique index or primary key collision.
	KindConstraint Kind = "CONSTRAINT_VIOLATION"

	// KindTxnAborted indicates an engine-level failure (I/O, lock, quota)
	// or an error returned from a transaction body.
	KindTxnAborted Kind = "TRANSACTION_ABORTED"

	// KindMigration indicates a schema upgrade could not complete. The
	// store stays at its last successfully committed version.
	KindMigration Kind = "MIGRATION_FAILURE"
)

// Error is the structured error returned by store operations. Collection
// and Key identify the offending record where known, so callers can render
// a meaningful message without parsing the text.
type Error struct {
	Kind       Kind
	Collection string
	Key        string
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Collection != "" && e.Key != "":
		return fmt.Sprintf("%s: %s (collection=%s, key=%s)", e.Kind, msg, e.Collection, e.Key)
	case e.Collection != "":
		return fmt.Sprintf("%s: %s (collection=%s)", e.Kind, msg, e.Collection)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
}

// Unwrap exposes the underlying engine error for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a missing-record failure.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool { return hasKind(err, KindNotFound) }

// IsConstraint reports whether err is a unique index or key collision.
func IsConstraint(err error) bool { return hasKind(err, KindConstraint) }

// IsTxnAborted reports whether err is an aborted transaction.
func IsTxnAborted(err error) bool { return hasKind(err, KindTxnAborted) }

// IsMigration reports whether err is a failed schema upgrade.
func IsMigration(err error) bool { return hasKind(err, KindMigration) }

func hasKind(err error, kind Kind) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}

func notFound(collection, key string) *Error {
	return &Error{
		Kind:       KindNotFound,
		Collection: collection,
		Key:        key,
		Message:    "record does not exist",
	}
}

func constraint(collection, key, message string) *Error {
	return &Error{
		Kind:       KindConstraint,
		Collection: collection,
		Key:        key,
		Message:    message,
	}
}

// classify maps a raw engine error onto the taxonomy. SQLite reports
// unique-index and primary-key collisions with SQLITE_CONSTRAINT, which is
// the only reliable way to tell a ConstraintViolation from any other
// engine failure; everything else is an aborted operation.
func classify(collection, key string, err error) *Error {
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
		return &Error{
			Kind:       KindConstraint,
			Collection: collection,
			Key:        key,
			Err:        err,
		}
	}
	return &Error{
		Kind:       KindTxnAborted,
		Collection: collection,
		Key:        key,
		Err:        err,
	}
}
