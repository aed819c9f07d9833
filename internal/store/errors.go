package store

import "errors"

// Sentinel errors shared across the store, lifecycle engine and API boundary.
// Callers match with errors.Is; wrap with %w to add context.
var (
	// ErrNotFound signals a lookup of an unknown message id.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals a compare-and-set mismatch: the record changed
	// between read and write.
	ErrConflict = errors.New("conflict")

	// ErrForbidden signals the acting actor lacks permission.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput signals a malformed or incomplete request.
	ErrInvalidInput = errors.New("invalid input")
)
