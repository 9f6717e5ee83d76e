package resolver

import "errors"

// Sentinel errors for resolution.
var (
	// ErrNotImplemented is returned when a proxy request is forced to
	// resolve locally: its body exists only on a remote.
	ErrNotImplemented = errors.New("resolver: not implemented locally")

	// ErrNoDigest is returned when a fully-cached request cannot produce
	// a secondary-storage key.
	ErrNoDigest = errors.New("resolver: fully-cached request without digest")
)
