package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingParent is returned when a child's immediate parent does not exist.
	ErrMissingParent = errors.New("metastore: parent resource does not exist")

	// ErrResourceConflict is returned when a create loses the uniqueness condition.
	ErrResourceConflict = errors.New("metastore: resource already exists")

	// ErrNotFound is returned when an update or patch target is absent.
	ErrNotFound = errors.New("metastore: resource not found")

	// ErrDeleteConflict is returned when deleting a resource that still has
	// children and cascade was not requested.
	ErrDeleteConflict = errors.New("metastore: resource still has children")

	// ErrResourceNotFound is returned when a delete target vanished between
	// enumeration and deletion.
	ErrResourceNotFound = errors.New("metastore: delete target not found")
)

// ValidationError reports a rejected attribute value.
type ValidationError struct {
	Attribute string
	Reason    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("metastore: invalid %s: %s", e.Attribute, e.Reason)
}
