package provision

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by resolver lookups that yield nothing.
var ErrNotFound = errors.New("identity not found")

// ConflictError means the target username already exists on the media server;
// nothing was mutated.
type ConflictError struct {
	Username   string
	JellyfinID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("user %q already exists on the media server (id %s)", e.Username, e.JellyfinID)
}
