package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks a missing user, course or department link.
	ErrNotFound = errors.New("not found")
	// ErrRateLimited marks a tap rejected by the debounce guard.
	ErrRateLimited = errors.New("rate limited")
	// ErrStorageFailure marks an I/O error from the backing store.
	ErrStorageFailure = errors.New("storage failure")
	// ErrInvariant marks a state the store should never contain, such as
	// two open sessions for one user.
	ErrInvariant = errors.New("invariant violation")
)

// NewError tags an error with the entity it concerns.
func NewError(entity string, err error) error {
	return fmt.Errorf("%s: %w", strings.ToLower(entity), err)
}
