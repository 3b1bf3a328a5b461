package repository

import "errors"

var (
	// ErrNotFound is returned when a requested ride or booking does not exist
	// or is no longer active.
	ErrNotFound = errors.New("entity not found")

	// ErrCorruptDocument is returned by a DatasetStore whose stored document
	// cannot be decoded.
	ErrCorruptDocument = errors.New("corrupt dataset document")
)
