package entity

import "errors"

// Domain errors for the entity package. Check with errors.Is().
var (
	// ErrEntityNotFound is returned when an entity ID does not exist.
	ErrEntityNotFound = errors.New("entity: not found")

	// ErrInvalidID is returned when an entity ID is empty.
	ErrInvalidID = errors.New("entity: invalid id")
)
