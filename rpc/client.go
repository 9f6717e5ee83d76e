package rpc

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mghro/open-cradle/async"
	"github.com/mghro/open-cradle/observe"
	"github.com/mghro/open-cradle/remote"
	"github.com/mghro/open-cradle/resilience"
)

// Options configures a client connection.
type Options struct {
	// Name registers the proxy under this name.
	Name string

	// URL is the websocket endpoint, e.g. "ws://localhost:8098/rpc".
	URL string

	// Token, if non-empty, is presented as a bearer credential during the
	// handshake.
	Token string

	// Timeout bounds each call. Default: 30s.
	Timeout time.Duration

	// Logger receives diagnostics; nil for none.
	Logger observe.Logger
}

// Client is a websocket-backed remote proxy.
type Client struct {
	name    string
	conn    *websocket.Conn
	timeout *resilience.Timeout
	logger  observe.Logger

	writeMu sync.Mutex
	nextID  atomic.Uint64

	mu      sync.Mutex
	pending map[uint64]chan *replyFrame

	closed    chan struct{}
	closeOnce sync.Once
}

// Dial connects to a server and starts the reply reader.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	if opts.Name == "" || opts.URL == "" {
		return nil, fmt.Errorf("rpc: name and URL are required")
	}
	if opts.Logger == nil {
		opts.Logger = observe.NopLogger()
	}

	var header http.Header
	if opts.Token != "" {
		header = http.Header{"Authorization": {"Bearer " + opts.Token}}
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, opts.URL, header)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%v (status %s)", err, resp.Status)
		}
		return nil, &remote.RemoteError{Op: "dial", Msg: opts.URL, Err: err}
	}

	c := &Client{
		name:    opts.Name,
		conn:    conn,
		timeout: resilience.NewTimeout(opts.Timeout),
		logger:  opts.Logger,
		pending: make(map[uint64]chan *replyFrame),
		closed:  make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Name identifies the proxy in the registry.
func (c *Client) Name() string { return c.name }

// Close tears the connection down; pending calls fail.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return c.conn.Close()
}

func (c *Client) readLoop() {
	defer c.Close()
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		var reply replyFrame
		if err := msgpack.Unmarshal(data, &reply); err != nil {
			c.logger.Warn(context.Background(), "rpc: undecodable reply", observe.F("error", err.Error()))
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[reply.ID]
		delete(c.pending, reply.ID)
		c.mu.Unlock()
		if ok {
			ch <- &reply
		}
	}
}

// call performs one request/reply round trip.
func (c *Client) call(ctx context.Context, frame *callFrame) (*replyFrame, error) {
	frame.ID = c.nextID.Add(1)
	ch := make(chan *replyFrame, 1)
	c.mu.Lock()
	c.pending[frame.ID] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, frame.ID)
		c.mu.Unlock()
	}()

	data, err := msgpack.Marshal(frame)
	if err != nil {
		return nil, &remote.RemoteError{Op: frame.Op, Msg: "encoding call", Err: err}
	}

	var reply *replyFrame
	err = c.timeout.Execute(ctx, func(ctx context.Context) error {
		c.writeMu.Lock()
		werr := c.conn.WriteMessage(websocket.BinaryMessage, data)
		c.writeMu.Unlock()
		if werr != nil {
			return werr
		}
		select {
		case reply = <-ch:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			return fmt.Errorf("connection closed")
		}
	})
	if err != nil {
		return nil, &remote.RemoteError{Op: frame.Op, Msg: "transport failure", Err: err}
	}
	if !reply.OK {
		// The remote's message travels verbatim.
		return nil, &remote.RemoteError{Op: frame.Op, Msg: reply.Error}
	}
	return reply, nil
}

// Ping returns the remote's version string.
func (c *Client) Ping(ctx context.Context) (string, error) {
	reply, err := c.call(ctx, &callFrame{Op: opPing})
	if err != nil {
		return "", err
	}
	return reply.Version, nil
}

// ResolveSync resolves a serialized request entirely on the remote.
func (c *Client) ResolveSync(ctx context.Context, domain string, seriReq []byte) ([]byte, error) {
	reply, err := c.call(ctx, &callFrame{Op: opResolveSync, Domain: domain, Req: seriReq})
	if err != nil {
		return nil, err
	}
	return c.collectResult(ctx, opResolveSync, reply.Result)
}

// SubmitAsync enqueues a serialized request and returns the root node id.
func (c *Client) SubmitAsync(ctx context.Context, domain string, seriReq []byte) (async.ID, error) {
	reply, err := c.call(ctx, &callFrame{Op: opSubmitAsync, Domain: domain, Req: seriReq})
	if err != nil {
		return 0, err
	}
	return async.ID(reply.AID), nil
}

// GetSubContexts lists a node's children.
func (c *Client) GetSubContexts(ctx context.Context, aid async.ID) ([]remote.SubContext, error) {
	reply, err := c.call(ctx, &callFrame{Op: opGetSubContexts, AID: uint64(aid)})
	if err != nil {
		return nil, err
	}
	subs := make([]remote.SubContext, len(reply.Subs))
	for i, s := range reply.Subs {
		subs[i] = remote.SubContext{AID: async.ID(s.AID), IsRequest: s.IsRequest}
	}
	return subs, nil
}

// GetAsyncStatus returns a node's current status.
func (c *Client) GetAsyncStatus(ctx context.Context, aid async.ID) (async.Status, error) {
	reply, err := c.call(ctx, &callFrame{Op: opGetAsyncStatus, AID: uint64(aid)})
	if err != nil {
		return 0, err
	}
	return async.Status(reply.Status), nil
}

// GetAsyncErrorMessage returns a node's error message.
func (c *Client) GetAsyncErrorMessage(ctx context.Context, aid async.ID) (string, error) {
	reply, err := c.call(ctx, &callFrame{Op: opGetAsyncErrorMessage, AID: uint64(aid)})
	if err != nil {
		return "", err
	}
	return reply.Msg, nil
}

// GetAsyncResponse returns the serialized result of a finished root.
func (c *Client) GetAsyncResponse(ctx context.Context, rootAID async.ID) ([]byte, error) {
	reply, err := c.call(ctx, &callFrame{Op: opGetAsyncResponse, AID: uint64(rootAID)})
	if err != nil {
		return nil, err
	}
	return c.collectResult(ctx, opGetAsyncResponse, reply.Result)
}

// RequestCancellation cancels the subtree rooted at aid.
func (c *Client) RequestCancellation(ctx context.Context, aid async.ID) error {
	_, err := c.call(ctx, &callFrame{Op: opRequestCancellation, AID: uint64(aid)})
	return err
}

// FinishAsync releases the server-side state of a submitted tree.
func (c *Client) FinishAsync(ctx context.Context, rootAID async.ID) error {
	_, err := c.call(ctx, &callFrame{Op: opFinishAsync, AID: uint64(rootAID)})
	return err
}

// MockHTTP installs a canned response for tests on the remote.
func (c *Client) MockHTTP(ctx context.Context, body string) error {
	_, err := c.call(ctx, &callFrame{Op: opMockHTTP, Body: body})
	return err
}

// collectResult materializes a result envelope, acknowledging shared-file
// results so the server may reclaim them.
func (c *Client) collectResult(ctx context.Context, op string, env *resultEnvelope) ([]byte, error) {
	data, err := decodeResult(env)
	if err != nil {
		return nil, &remote.RemoteError{Op: op, Msg: "collecting result", Err: err}
	}
	if env != nil && env.File != "" {
		if _, err := c.call(ctx, &callFrame{Op: opAckResponse, RespID: env.RespID}); err != nil {
			c.logger.Warn(ctx, "rpc: ack_response failed", observe.F("error", err.Error()))
		}
	}
	return data, nil
}

var _ remote.Proxy = (*Client)(nil)
