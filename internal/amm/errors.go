package amm

import "errors"

var (
	// ErrInvalidInput covers non-positive amounts, empty reserves and malformed references.
	ErrInvalidInput = errors.New("invalid input")
	// ErrPoolInactive is returned for operations against a pool that no longer trades.
	ErrPoolInactive = errors.New("pool inactive")
	// ErrAlreadyRugged is returned once a pool has been drained.
	ErrAlreadyRugged = errors.New("pool already rugged")
)
