package domain

import "errors"

// Error taxonomy shared by the scheduling core. Callers classify failures with
// errors.Is; everything else is wrapped context.
var (
	// ErrInvalidInput marks malformed requests: inverted windows, non-positive
	// durations, inverted daily bounds. Raised before any I/O.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstreamUnavailable marks an unreachable calendar source or primary
	// cache. Read paths absorb it while partial results remain meaningful;
	// write paths surface it immediately.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrNotFound marks an update or delete that references an event id the
	// provider does not know.
	ErrNotFound = errors.New("event not found")
)
