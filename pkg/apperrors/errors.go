// Package apperrors holds the error kinds shared across layers.
// Callers branch on them with errors.Is; one error may carry several kinds
// (e.g. a delete of a missing entry is both ErrDeleteFailed and ErrNotFound).
package apperrors

import "errors"

var (
	// ErrUnauthorized means no acting user could be established.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound means the record does not exist or is not owned by the acting user.
	ErrNotFound = errors.New("not found")
	// ErrDeleteFailed means a delete did not complete.
	ErrDeleteFailed = errors.New("failed to delete entry")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)
