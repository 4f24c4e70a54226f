// Package common defines shared constants and sentinel errors used across
// dropnote components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// ErrorNotFound deliberately covers three store outcomes: a record that
	// never existed, a record past its expiry, and a record already consumed
	// by its one view. Reporting them identically keeps the view endpoint
	// from acting as an existence oracle.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// ErrClockAnomaly marks a session token whose issued-at lies in the
	// future. Treated as an authentication failure and logged.
	ErrClockAnomaly = errors.New("token issued in the future")

	// ErrAllocationExhausted is returned when the view-token allocator runs
	// out of collision retries.
	ErrAllocationExhausted = errors.New("view token allocation exhausted")

	// ErrorAlreadyExists signals a uniqueness conflict on insert.
	ErrorAlreadyExists = errors.New("already exists")
)
