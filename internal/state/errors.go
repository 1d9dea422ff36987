package state

import (
	"errors"
	"fmt"
)

// ErrSignedOut is returned by mutations made without a signed-in user
var ErrSignedOut = errors.New("not signed in")

// SyncError is a backend call that failed; local state was left unchanged
type SyncError struct {
	Op  string
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
