package domain

import "errors"

var (
	// Common domain errors. The HTTP layer maps each sentinel to a stable
	// error code; anything unrecognized degrades to a generic internal error.
	ErrNotFound            = errors.New("session not found or expired")
	ErrInvalidInput        = errors.New("invalid input")
	ErrRateLimited         = errors.New("rate limit exceeded")
	ErrSafetyBlocked       = errors.New("message blocked by content policy")
	ErrUnsupportedLanguage = errors.New("unsupported language")
)
