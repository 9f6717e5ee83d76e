package request

import (
	"context"
	"fmt"
	"reflect"
	"runtime"

	"github.com/mghro/open-cradle/identity"
	"github.com/mghro/open-cradle/resilience"
	"github.com/mghro/open-cradle/value"
)

// PlainFunc is a pure function body: arguments in, value out.
type PlainFunc func(args ...value.Value) (value.Value, error)

// CoroFunc is a coroutine body: it additionally receives the resolution
// context and may block on it.
type CoroFunc func(ctx context.Context, args ...value.Value) (value.Value, error)

// Props declares the static properties of a function request class.
type Props struct {
	// UUID is the stable textual identifier of the request class; may be
	// "" for intra-process, memory-only requests.
	UUID string

	// Scope declares what the UUID is good for.
	Scope UUIDScope

	// Level selects the participating cache tiers.
	Level CachingLevel

	// ResultType declares the type of the resolved value.
	ResultType value.Type

	// Title labels the request for the introspection sink; setting it
	// marks the request introspective.
	Title string

	// Retrier, if non-nil, declares the request retryable under the given
	// policy.
	Retrier resilience.Retrier

	// Proxy marks a request whose body exists only on a remote; such a
	// request always dispatches remotely.
	Proxy bool
}

func (p Props) validate() error {
	if p.Level == CacheFull && p.Scope != UUIDFullyCacheable {
		return ErrNotDiskCacheable
	}
	if p.UUID == "" && p.Scope != UUIDNone {
		return ErrMissingUUID
	}
	if p.Proxy && p.Scope == UUIDNone {
		return fmt.Errorf("%w: proxy requests must be serializable", ErrMissingUUID)
	}
	return nil
}

// FuncRequest applies a function to argument subrequests. It is the
// type-erased composition form: heterogeneous subrequest shapes compose
// under one parent, and serializable instances round-trip through the
// catalog.
type FuncRequest struct {
	props Props
	plain PlainFunc
	coro  CoroFunc
	args  []Request
	id    identity.FuncID
}

// NewPlain builds a request applying a pure function to the given
// arguments.
func NewPlain(props Props, fn PlainFunc, args ...Request) (*FuncRequest, error) {
	if fn == nil && !props.Proxy {
		return nil, ErrNilFunction
	}
	if err := props.validate(); err != nil {
		return nil, err
	}
	r := &FuncRequest{props: props, plain: fn, args: args}
	r.id = identity.NewFuncID(r.class(), argIDs(args))
	return r, nil
}

// NewCoro builds a request applying a coroutine function to the given
// arguments.
func NewCoro(props Props, fn CoroFunc, args ...Request) (*FuncRequest, error) {
	if fn == nil && !props.Proxy {
		return nil, ErrNilFunction
	}
	if err := props.validate(); err != nil {
		return nil, err
	}
	r := &FuncRequest{props: props, coro: fn, args: args}
	r.id = identity.NewFuncID(r.class(), argIDs(args))
	return r, nil
}

// class is the stable class identifier for identity purposes: the UUID if
// declared, else the host's identity of the function. The latter is not
// portable across processes, which is why UUID-less requests are refused
// for serialization and full caching.
func (r *FuncRequest) class() string {
	if r.props.UUID != "" {
		return r.props.UUID
	}
	fn := any(r.plain)
	if r.coro != nil {
		fn = r.coro
	}
	pc := reflect.ValueOf(fn).Pointer()
	if f := runtime.FuncForPC(pc); f != nil {
		return fmt.Sprintf("func:%s@%x", f.Name(), pc)
	}
	return fmt.Sprintf("func:%x", pc)
}

func argIDs(args []Request) []identity.ID {
	ids := make([]identity.ID, len(args))
	for i, a := range args {
		ids[i] = a.ID()
	}
	return ids
}

func (r *FuncRequest) UUID() string               { return r.props.UUID }
func (r *FuncRequest) UUIDScope() UUIDScope       { return r.props.Scope }
func (r *FuncRequest) ValueType() value.Type      { return r.props.ResultType }
func (r *FuncRequest) CachingLevel() CachingLevel { return r.props.Level }
func (r *FuncRequest) Introspective() bool        { return r.props.Title != "" }
func (r *FuncRequest) Title() string              { return r.props.Title }
func (r *FuncRequest) Coroutine() bool            { return r.coro != nil }
func (r *FuncRequest) ProxyOnly() bool            { return r.props.Proxy }

func (r *FuncRequest) Retrier() resilience.Retrier { return r.props.Retrier }
func (r *FuncRequest) ID() identity.ID             { return r.id }
func (r *FuncRequest) Args() []Request             { return r.args }

// Props returns the request's declared properties.
func (r *FuncRequest) Props() Props { return r.props }

// Digest computes the SHA-256 over the UUID and the encoded arguments,
// recursively; subrequest arguments contribute their own digests.
func (r *FuncRequest) Digest() (identity.Digest, error) {
	if r.props.UUID == "" {
		// No UUID means no cross-process identity to hash.
		return identity.Digest{}, ErrNotDigestible
	}
	h := identity.NewHasher()
	h.WriteUUID(r.props.UUID)
	for _, arg := range r.args {
		if lit, ok := arg.(*Literal); ok {
			if err := h.WriteValue(lit.Value()); err != nil {
				return identity.Digest{}, err
			}
			continue
		}
		d, err := arg.Digest()
		if err != nil {
			return identity.Digest{}, err
		}
		h.WriteDigest(d)
	}
	return h.Sum(), nil
}

// Invoke runs the body with already-resolved argument values.
func (r *FuncRequest) Invoke(ctx context.Context, args []value.Value) (value.Value, error) {
	if r.props.Proxy {
		return value.Value{}, fmt.Errorf("%w: uuid %q", ErrProxyBody, r.props.UUID)
	}
	if r.coro != nil {
		return r.coro(ctx, args...)
	}
	return r.plain(args...)
}

var _ Request = (*FuncRequest)(nil)
