package catalog

import "errors"

// Sentinel errors for catalog operations.
var (
	// ErrUnregisteredUUID is returned when a lookup or deserialization
	// references a UUID with no live registration.
	ErrUnregisteredUUID = errors.New("catalog: unregistered uuid")

	// ErrConflictingUUIDTypes is returned when a UUID is re-registered
	// with properties incompatible with a live registration.
	ErrConflictingUUIDTypes = errors.New("catalog: conflicting uuid types")

	// ErrInvalidRegistration is returned for registrations missing a UUID
	// or a constructor.
	ErrInvalidRegistration = errors.New("catalog: invalid registration")

	// ErrBadEnvelope is returned when a serialized request cannot be
	// parsed.
	ErrBadEnvelope = errors.New("catalog: malformed request envelope")
)
