// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across storage/sync layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates a missing, malformed or expired access token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNoSession indicates an operation that needs a signed-in user was called without one.
	ErrNoSession = errors.New("no session")

	// ErrCorruptState indicates the local state file could not be decoded or unsealed.
	ErrCorruptState = errors.New("corrupt local state")
)
