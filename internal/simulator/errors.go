package simulator

import (
	"errors"
	"fmt"

	"rugpullSim/internal/amm"
)

var (
	// ErrPoolNotFound is returned for an unknown pool id.
	ErrPoolNotFound = fmt.Errorf("%w: pool not found", amm.ErrInvalidInput)

	// ErrTokenNotFound is returned for an unknown token id.
	ErrTokenNotFound = fmt.Errorf("%w: token not found", amm.ErrInvalidInput)

	// ErrPersistence marks a failed storage commit. In-memory state is unchanged.
	ErrPersistence = errors.New("persistence failed")

	// ErrStaleCommit is returned when a pending commit no longer matches the pool it was computed against.
	ErrStaleCommit = errors.New("stale commit")
)

// CommitError carries the pending change of an operation whose storage
// commit failed. Pass Pending to Session.Commit to retry without recomputing.
type CommitError struct {
	Pending *PendingCommit
	Err     error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Pending.Operation, e.Err)
}

func (e *CommitError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// PendingFrom extracts the pending commit from err, if any.
func PendingFrom(err error) (*PendingCommit, bool) {
	var ce *CommitError
	if errors.As(err, &ce) && ce.Pending != nil {
		return ce.Pending, true
	}
	return nil, false
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, amm.ErrAlreadyRugged):
		return "already_rugged"
	case errors.Is(err, amm.ErrPoolInactive):
		return "pool_inactive"
	case errors.Is(err, ErrPoolNotFound):
		return "pool_not_found"
	case errors.Is(err, ErrTokenNotFound):
		return "token_not_found"
	case errors.Is(err, ErrStaleCommit):
		return "stale_commit"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	case errors.Is(err, amm.ErrInvalidInput):
		return "invalid_input"
	default:
		return "other"
	}
}
