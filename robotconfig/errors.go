package robotconfig

import "errors"

// Config loading errors.
var (
	// ErrNotFound is returned when a robot has no model file.
	ErrNotFound = errors.New("robot model not found")

	// ErrParse is returned when a model file is not a valid document.
	ErrParse = errors.New("robot model parse failure")

	// ErrInvalidName is returned for robot names that are not a single path
	// element.
	ErrInvalidName = errors.New("invalid robot name")
)
