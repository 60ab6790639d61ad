package store

import "errors"

var (
	// ErrValidation covers malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate is returned when a username or email is already taken.
	ErrDuplicate = errors.New("already exists")
	// ErrInvalidCredentials is deliberately generic: a missing account and a
	// wrong password produce the same error so callers cannot enumerate
	// registered emails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotFound is returned for owner-scoped lookups that match nothing.
	// A task that exists under a different owner yields this same error.
	ErrNotFound = errors.New("not found")
)
