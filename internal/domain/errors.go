package domain

import "errors"

// Sentinel errors - match with errors.Is()
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")

	// Completion failure taxonomy. Terminal outcomes of a completion
	// call; the tutor service maps each to a fixed user-facing message
	// and logs the internal detail for operators.
	ErrUnconfigured      = errors.New("completion credential not configured")
	ErrAuthFailure       = errors.New("completion auth rejected")
	ErrRateLimited       = errors.New("completion rate limited")
	ErrUpstream          = errors.New("completion upstream error")
	ErrNetwork           = errors.New("completion network failure")
	ErrMalformedResponse = errors.New("completion response malformed")
)
