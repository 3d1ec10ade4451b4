package storage

import "errors"

// ErrNotFound is returned when no record exists for an entity.
var ErrNotFound = errors.New("entity record not found")
