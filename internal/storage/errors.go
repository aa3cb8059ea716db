package storage

import "errors"

var (
	// ErrInvalidInput is returned when a record fails validation before it is written.
	ErrInvalidInput = errors.New("invalid input")

	// ErrClosed is returned by backends used after Close.
	ErrClosed = errors.New("storage closed")
)
