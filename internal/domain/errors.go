package domain

import "errors"

var (
	// ErrValidation marks a malformed or oversized request. Never retried.
	ErrValidation = errors.New("validation failed")
	// ErrAuth marks rejected credentials. Never retried.
	ErrAuth = errors.New("authentication failed")
	// ErrTransient marks timeout and connection class failures. Retried once.
	ErrTransient = errors.New("transient failure")
)
