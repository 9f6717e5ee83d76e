package memcache

import "errors"

// Sentinel errors for cache operations.
var (
	// ErrReleased is returned when a handle is used after release.
	ErrReleased = errors.New("memcache: handle already released")
)
