package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrImport is returned when an import document cannot be applied.
	ErrImport = errors.New("persistence: import document rejected")
)
