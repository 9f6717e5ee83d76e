package request

import "errors"

// Sentinel errors for request construction and use.
var (
	// ErrNotDiskCacheable is returned when a full caching level is
	// requested for a UUID that is not declared disk-cacheable.
	ErrNotDiskCacheable = errors.New("request: full caching requires a disk-cacheable uuid")

	// ErrNotSerializable is returned when serialization is attempted on a
	// request whose UUID is not declared serializable.
	ErrNotSerializable = errors.New("request: uuid is not serializable")

	// ErrMissingUUID is returned when a declaration is inconsistent about
	// the presence of a UUID.
	ErrMissingUUID = errors.New("request: uuid required for the declared scope")

	// ErrNotDigestible is returned when a digest is requested for a
	// request that cannot have one.
	ErrNotDigestible = errors.New("request: digest undefined for this request")

	// ErrProxyBody is returned when a proxy request's body is invoked
	// locally; proxy requests resolve on a remote only.
	ErrProxyBody = errors.New("request: proxy request has no local body")

	// ErrNilFunction is returned when a function request is built without
	// a body.
	ErrNilFunction = errors.New("request: nil function")
)
