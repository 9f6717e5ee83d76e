package async

import (
	"sync"
	"sync/atomic"

	"github.com/mghro/open-cradle/request"
)

// ID identifies one async node within a process.
type ID uint64

var lastID atomic.Uint64

// NextID allocates a process-unique node id.
func NextID() ID { return ID(lastID.Add(1)) }

// Node is one entry in an async resolution tree. The tree's shape mirrors
// the request tree and is immutable after construction; only status and
// the error message mutate, and both are safe for concurrent use.
type Node struct {
	id        ID
	parent    *Node
	isRequest bool
	children  []*Node

	status atomic.Int32

	cancel     chan struct{}
	cancelOnce sync.Once

	errMu  sync.Mutex
	errMsg string
}

func newNode(parent *Node, isRequest bool) *Node {
	return &Node{
		id:        NextID(),
		parent:    parent,
		isRequest: isRequest,
		cancel:    make(chan struct{}),
	}
}

// BuildTree constructs the async tree for a request: one node per
// subrequest, one value node per literal argument, children linked in
// argument order.
func BuildTree(req request.Request) *Node {
	return buildNode(nil, req)
}

func buildNode(parent *Node, req request.Request) *Node {
	n := newNode(parent, true)
	for _, arg := range req.Args() {
		if _, ok := arg.(*request.Literal); ok {
			n.children = append(n.children, newNode(n, false))
			continue
		}
		n.children = append(n.children, buildNode(n, arg))
	}
	return n
}

// ID returns the node's id.
func (n *Node) ID() ID { return n.id }

// Parent returns the parent node, or nil at the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the child nodes in argument order.
func (n *Node) Children() []*Node { return n.children }

// IsRequest reports whether the node stands for a request (true) or a
// plain value (false).
func (n *Node) IsRequest() bool { return n.isRequest }

// Status returns the node's current status.
func (n *Node) Status() Status { return Status(n.status.Load()) }

// SetStatus moves the node to s unless it is already terminal, or
// Cancelling and s is not terminal. It reports whether the transition took
// effect.
func (n *Node) SetStatus(s Status) bool {
	for {
		cur := Status(n.status.Load())
		if cur.Terminal() {
			return false
		}
		if cur == Cancelling && !s.Terminal() {
			return false
		}
		if n.status.CompareAndSwap(int32(cur), int32(s)) {
			return true
		}
	}
}

// SetError moves the node to StatusError, capturing the message.
func (n *Node) SetError(msg string) bool {
	n.errMu.Lock()
	n.errMsg = msg
	n.errMu.Unlock()
	return n.SetStatus(StatusError)
}

// ErrorMessage returns the captured message; valid when the status is
// StatusError.
func (n *Node) ErrorMessage() string {
	n.errMu.Lock()
	defer n.errMu.Unlock()
	return n.errMsg
}

// RequestCancellation atomically marks this node and every descendant
// Cancelling. Each transitions to Cancelled at its next suspension point.
func (n *Node) RequestCancellation() {
	n.SetStatus(Cancelling)
	n.cancelOnce.Do(func() { close(n.cancel) })
	for _, child := range n.children {
		child.RequestCancellation()
	}
}

// CancelRequested reports whether cancellation was requested on this node
// or an ancestor.
func (n *Node) CancelRequested() bool {
	select {
	case <-n.cancel:
		return true
	default:
	}
	if n.parent != nil {
		return n.parent.CancelRequested()
	}
	return false
}

// CancelChan closes when cancellation is requested on this node.
// Suspension points select on it.
func (n *Node) CancelChan() <-chan struct{} { return n.cancel }

// ThrowIfCancelled returns ErrCancelled after a cancellation request,
// moving the node to Cancelled. Bodies call this at their discretion; the
// resolver calls it before resolving a request and before running a body,
// and its awaits observe cancellation through CancelChan or CancelRequested.
func (n *Node) ThrowIfCancelled() error {
	if !n.CancelRequested() {
		return nil
	}
	n.SetStatus(Cancelled)
	return ErrCancelled
}

// Walk visits the subtree rooted at n in depth-first order.
func (n *Node) Walk(visit func(*Node)) {
	visit(n)
	for _, child := range n.children {
		child.Walk(visit)
	}
}
