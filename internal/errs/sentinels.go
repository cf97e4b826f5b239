// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested record or sub-resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates a missing/invalid/expired session or bad login credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates a valid session whose roles do not permit the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput indicates a malformed identifier or out-of-range parameter.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., username taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrStorage indicates the underlying store is unavailable or a storage call failed.
	ErrStorage = errors.New("storage failure")
)
