package domain

import "errors"

var (
	// ErrValidation marks malformed or incomplete input rejected at ingest.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a missing entity.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a uniqueness or state conflict.
	ErrConflict = errors.New("conflict")
	// ErrUnavailable marks a transient infrastructure failure (queue or store down).
	ErrUnavailable = errors.New("service unavailable")
)
