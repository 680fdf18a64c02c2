package store

import "errors"

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an insert violates a uniqueness
	// constraint, such as two minters racing to the same ark string.
	ErrDuplicate = errors.New("duplicate")
)
