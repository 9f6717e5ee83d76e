package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mghro/open-cradle/async"
)

// RemoteError reports a failure on a remote, or while communicating with
// one. Remote-side messages are carried verbatim.
type RemoteError struct {
	// Op is the failing proxy operation.
	Op string

	// Msg is the human-readable message; for remote-side failures it is
	// the remote's message, unaltered.
	Msg string

	// Err is the underlying transport error, if any.
	Err error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("remote: %s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("remote: %s: %s", e.Op, e.Msg)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// ErrUnknownProxy is returned when no proxy is registered under the
// requested name.
var ErrUnknownProxy = errors.New("remote: unknown proxy")

// SubContext describes one child of a remote async node: its id and
// whether it stands for a request or a plain value.
type SubContext struct {
	AID       async.ID
	IsRequest bool
}

// Proxy is a client-side handle to one remote resolver.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: every operation fails with *RemoteError.
// - FinishAsync must be called once per submitted tree after a terminal
//   status, even on failure; it releases server-side state.
type Proxy interface {
	// Name identifies the proxy in the registry.
	Name() string

	// Ping returns the remote's version string.
	Ping(ctx context.Context) (string, error)

	// ResolveSync resolves a serialized request entirely on the remote,
	// blocking until the serialized result is available.
	ResolveSync(ctx context.Context, domain string, seriReq []byte) ([]byte, error)

	// SubmitAsync enqueues a serialized request for async resolution and
	// returns the remote id of the root node.
	SubmitAsync(ctx context.Context, domain string, seriReq []byte) (async.ID, error)

	// GetSubContexts lists a node's children. Valid once the node has
	// reached SubsRunning or later.
	GetSubContexts(ctx context.Context, aid async.ID) ([]SubContext, error)

	// GetAsyncStatus returns a node's current status.
	GetAsyncStatus(ctx context.Context, aid async.ID) (async.Status, error)

	// GetAsyncErrorMessage returns a node's error message. Valid only
	// when the status is StatusError.
	GetAsyncErrorMessage(ctx context.Context, aid async.ID) (string, error)

	// GetAsyncResponse returns the serialized result of a finished root.
	GetAsyncResponse(ctx context.Context, rootAID async.ID) ([]byte, error)

	// RequestCancellation cancels the subtree rooted at any node.
	RequestCancellation(ctx context.Context, aid async.ID) error

	// FinishAsync releases the server-side state of a submitted tree.
	FinishAsync(ctx context.Context, rootAID async.ID) error
}

// Registry maps proxy names to live proxies.
type Registry struct {
	mu      sync.Mutex
	proxies map[string]Proxy
}

// NewRegistry creates an empty proxy registry.
func NewRegistry() *Registry {
	return &Registry{proxies: make(map[string]Proxy)}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide proxy registry.
func Default() *Registry { return defaultRegistry }

// Register adds a proxy under its name, replacing any previous one.
func (r *Registry) Register(p Proxy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.proxies[p.Name()] = p
}

// Find returns the proxy registered under name.
func (r *Registry) Find(name string) (Proxy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.proxies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProxy, name)
	}
	return p, nil
}

// Reset drops every proxy. Test fixtures use this between cases.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.proxies = make(map[string]Proxy)
}
