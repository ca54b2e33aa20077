package store

import "errors"

var (
	// ErrItemNotFound is returned when no row exists at the requested key.
	ErrItemNotFound = errors.New("metastore: item not found")

	// ErrConditionFailed is returned when a conditional write loses its
	// condition check (row already exists on create, or vanished on delete).
	ErrConditionFailed = errors.New("metastore: conditional check failed")
)
