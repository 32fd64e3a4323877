package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthorized means the caller is not permitted for the requested
	// room action. Not retryable with the same identity.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrNotFound means the referenced room/transport/producer/consumer
	// does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotJoined means the action requires a prior join/create on this
	// connection.
	ErrNotJoined = errors.New("not joined to a room")
	// ErrValidation means malformed input. Fix and retry.
	ErrValidation = errors.New("invalid input")
)

// Validation wraps a message into the validation error class so adapters
// can classify it with errors.Is.
func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// NotFound marks a missing entity by kind and id.
func NotFound(kind, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
}
