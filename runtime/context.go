package runtime

import (
	"context"
	"time"

	"github.com/mghro/open-cradle/async"
	"github.com/mghro/open-cradle/introspect"
	"github.com/mghro/open-cradle/observe"
)

// Context is the runtime value passed through resolution. It is cheap to
// copy derivations from; the underlying resources are shared.
type Context struct {
	res       *Resources
	domain    string
	remote    bool
	proxyName string
	asyncMode bool
	node      *async.Node
	tasklet   *introspect.Tasklet
}

// Option configures a Context.
type Option func(*Context)

// WithRemote directs resolution to the named proxy.
func WithRemote(proxyName string) Option {
	return func(c *Context) {
		c.remote = true
		c.proxyName = proxyName
	}
}

// WithAsync enables async mode: resolution builds a node tree and tracks
// per-node status.
func WithAsync() Option {
	return func(c *Context) { c.asyncMode = true }
}

// WithDomain records the domain the context was built for.
func WithDomain(name string) Option {
	return func(c *Context) { c.domain = name }
}

// NewContext creates a root context over the given resources.
func NewContext(res *Resources, opts ...Option) *Context {
	c := &Context{res: res}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resources returns the shared resources.
func (c *Context) Resources() *Resources { return c.res }

// Domain returns the domain name the context was built for.
func (c *Context) Domain() string { return c.domain }

// Remotely reports whether resolution dispatches to a remote.
func (c *Context) Remotely() bool { return c.remote }

// ProxyName names the remote proxy to dispatch through.
func (c *Context) ProxyName() string { return c.proxyName }

// Async reports whether resolution runs with a node tree.
func (c *Context) Async() bool { return c.asyncMode }

// CurrentNode returns the async node for the request being resolved, or
// nil outside async mode (or before the tree is attached).
func (c *Context) CurrentNode() *async.Node { return c.node }

// WithNode derives a context positioned at the given async node.
func (c *Context) WithNode(n *async.Node) *Context {
	derived := *c
	derived.node = n
	return &derived
}

// Tasklet returns the introspection token, or nil.
func (c *Context) Tasklet() *introspect.Tasklet { return c.tasklet }

// WithTasklet derives a context carrying the given tasklet.
func (c *Context) WithTasklet(t *introspect.Tasklet) *Context {
	derived := *c
	derived.tasklet = t
	return &derived
}

// Logger returns the resources' logger.
func (c *Context) Logger() observe.Logger {
	if c.res == nil || c.res.Observer == nil {
		return observe.NopLogger()
	}
	return c.res.Observer.Logger()
}

// ThrowIfCancelled returns ErrCancelled once cancellation has been
// requested for the current node. Bodies may call it between suspension
// points.
func (c *Context) ThrowIfCancelled() error {
	if c.node == nil {
		return nil
	}
	return c.node.ThrowIfCancelled()
}

// ScheduleAfter waits for d, returning early when ctx is done or when the
// current node is cancelled. It is the cancellation-aware sleep both retry
// delays and request bodies use.
func (c *Context) ScheduleAfter(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	var cancelCh <-chan struct{}
	if c.node != nil {
		cancelCh = c.node.CancelChan()
	}
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-cancelCh:
		c.node.SetStatus(async.Cancelled)
		return async.ErrCancelled
	}
}
