package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrWriteRejected marks a write the collaborator answered but declined;
	// the target record stays pending.
	ErrWriteRejected = errors.New("write rejected")
)
