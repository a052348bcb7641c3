package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Authentication Errors.

	// ErrNotAuthenticated indicates no session credentials are stored.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrUnauthorized indicates the server rejected the request credentials (HTTP 401).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAuthExpired indicates the session could not be renewed.
	// It is terminal for the current session: the caller must log in again.
	ErrAuthExpired = errors.New("authentication expired")

	// Transport Errors.

	// ErrTransient indicates a network failure or a retryable server status (5xx, 429).
	// The request layer never retries these itself.
	ErrTransient = errors.New("transient request failure")
)
