package request

import (
	"context"

	"github.com/mghro/open-cradle/identity"
	"github.com/mghro/open-cradle/resilience"
	"github.com/mghro/open-cradle/value"
)

// CachingLevel selects which cache tiers participate in resolving a
// request.
type CachingLevel int

const (
	// CacheNone bypasses both tiers.
	CacheNone CachingLevel = iota
	// CacheMemory uses the in-process memory cache only.
	CacheMemory
	// CacheFull additionally uses secondary storage.
	CacheFull
)

func (l CachingLevel) String() string {
	switch l {
	case CacheNone:
		return "none"
	case CacheMemory:
		return "memory"
	case CacheFull:
		return "full"
	default:
		return "invalid"
	}
}

// UUIDScope declares what a request's UUID is good for.
type UUIDScope int

const (
	// UUIDNone: no UUID; identity derives from the function's host
	// identity and is valid intra-process only.
	UUIDNone UUIDScope = iota
	// UUIDSerializable: the request can be transported across processes.
	UUIDSerializable
	// UUIDFullyCacheable: serializable and eligible for full caching.
	UUIDFullyCacheable
)

// Request is a node in a computation graph.
//
// Contract:
// - Immutable after construction; safe for concurrent use.
// - Request trees are acyclic.
// - Equal IDs imply semantically identical requests.
type Request interface {
	// UUID returns the stable identifier of the request class, or "".
	UUID() string

	// UUIDScope reports what the UUID is declared for.
	UUIDScope() UUIDScope

	// ValueType is the type of value the request resolves to.
	ValueType() value.Type

	// CachingLevel selects the participating cache tiers.
	CachingLevel() CachingLevel

	// Introspective reports whether resolution should be visible to the
	// introspection sink; Title is its human-readable label.
	Introspective() bool
	Title() string

	// Coroutine reports whether the body needs the context at invocation.
	Coroutine() bool

	// ProxyOnly reports whether the body exists only on a remote.
	ProxyOnly() bool

	// Retrier returns the request's retry policy, or nil.
	Retrier() resilience.Retrier

	// ID returns the request's content-derived identity (the memory-cache
	// key).
	ID() identity.ID

	// Digest returns the cryptographic digest (the secondary-storage
	// key). Defined for a function request with a UUID, whatever its
	// scope, and for literals, whose digest is that of their encoded value.
	Digest() (identity.Digest, error)

	// Args returns the argument subrequests in order.
	Args() []Request

	// Invoke runs the body with already-resolved argument values. The
	// resolver guarantees len(args) == len(Args()).
	Invoke(ctx context.Context, args []value.Value) (value.Value, error)
}
