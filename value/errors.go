package value

import "errors"

// Sentinel errors for value operations.
var (
	// ErrTypeMismatch is returned when an accessor is called on a value of
	// a different type.
	ErrTypeMismatch = errors.New("value: type mismatch")

	// ErrDuplicateKey is returned when a map is built with two structurally
	// equal keys.
	ErrDuplicateKey = errors.New("value: duplicate map key")
)
