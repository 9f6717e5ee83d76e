package rpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mghro/open-cradle/async"
	"github.com/mghro/open-cradle/catalog"
	"github.com/mghro/open-cradle/config"
	"github.com/mghro/open-cradle/observe"
	"github.com/mghro/open-cradle/resilience"
	"github.com/mghro/open-cradle/resolver"
	"github.com/mghro/open-cradle/runtime"
	"github.com/mghro/open-cradle/value"
)

// Version is the string answered to ping.
const Version = "open-cradle/0.19"

// ErrNotReady is returned when a poll references a node that has not
// reached the required status yet.
var ErrNotReady = errors.New("rpc: node not ready")

// inflight tracks one submitted async resolution.
type inflight struct {
	root *async.Node
	done chan struct{}
	val  value.Value
	err  error
}

// Server deserializes requests arriving on the channel and resolves them
// locally, tracking async trees so clients can poll by node id.
type Server struct {
	res      *runtime.Resources
	domains  *runtime.DomainRegistry
	catalogs *catalog.Registry
	logger   observe.Logger

	bulkhead *resilience.Bulkhead
	nodes    *async.Registry

	mu       sync.Mutex
	inflight map[async.ID]*inflight

	files         *blobFiles
	blobThreshold int64

	authSecret []byte
	testing    bool

	upgrader websocket.Upgrader
}

// NewServer creates a server over the given resources and registries. nil
// registries default to the process-wide ones.
func NewServer(cfg *config.Config, res *runtime.Resources, domains *runtime.DomainRegistry, catalogs *catalog.Registry) *Server {
	if cfg == nil {
		cfg = config.Empty()
	}
	if domains == nil {
		domains = runtime.Domains()
	}
	if catalogs == nil {
		catalogs = catalog.Default()
	}
	s := &Server{
		res:      res,
		domains:  domains,
		catalogs: catalogs,
		logger:   res.Observer.Logger(),
		bulkhead: resilience.NewBulkhead(int(cfg.GetIntOr(config.KeyRequestConcurrency, 16)), true),
		nodes:    async.NewRegistry(),
		inflight: make(map[async.ID]*inflight),
		testing:  cfg.GetBoolOr(config.KeyTesting, false),
	}
	if secret := cfg.GetStringOr(config.KeyAuthSecret, ""); secret != "" {
		s.authSecret = []byte(secret)
	}
	if dir := cfg.GetStringOr(config.KeyBlobDir, ""); dir != "" {
		s.files = newBlobFiles(dir)
		s.blobThreshold = cfg.GetIntOr(config.KeyBlobFileThreshold, DefaultBlobFileThreshold)
	}
	return s
}

// Handler returns the websocket endpoint.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authSecret != nil {
			if err := authenticate(r, s.authSecret); err != nil {
				s.logger.Warn(r.Context(), "rpc: handshake rejected", observe.F("error", err.Error()))
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.serveConn(r.Context(), conn)
	})
}

// serveConn reads frames until the peer goes away, dispatching each on the
// worker pool under the request-concurrency bulkhead.
func (s *Server) serveConn(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()
	var writeMu sync.Mutex

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		var call callFrame
		if err := msgpack.Unmarshal(data, &call); err != nil {
			s.logger.Warn(ctx, "rpc: undecodable frame", observe.F("error", err.Error()))
			continue
		}

		s.res.Pool.Go(func() {
			reply := &replyFrame{ID: call.ID}
			err := s.bulkhead.Execute(ctx, func(ctx context.Context) error {
				return s.dispatch(ctx, &call, reply)
			})
			if err != nil {
				reply.OK = false
				reply.Error = err.Error()
			} else {
				reply.OK = true
			}

			out, err := msgpack.Marshal(reply)
			if err != nil {
				s.logger.Error(ctx, "rpc: unencodable reply", observe.F("error", err.Error()))
				return
			}
			writeMu.Lock()
			werr := conn.WriteMessage(websocket.BinaryMessage, out)
			writeMu.Unlock()
			if werr != nil {
				s.logger.Warn(ctx, "rpc: write failed", observe.F("error", werr.Error()))
			}
		})
	}
}

func (s *Server) dispatch(ctx context.Context, call *callFrame, reply *replyFrame) error {
	switch call.Op {
	case opPing:
		reply.Version = Version
		return nil
	case opResolveSync:
		return s.handleResolveSync(ctx, call, reply)
	case opSubmitAsync:
		return s.handleSubmitAsync(ctx, call, reply)
	case opGetSubContexts:
		return s.handleGetSubContexts(call, reply)
	case opGetAsyncStatus:
		return s.handleGetAsyncStatus(call, reply)
	case opGetAsyncErrorMessage:
		return s.handleGetAsyncErrorMessage(call, reply)
	case opGetAsyncResponse:
		return s.handleGetAsyncResponse(call, reply)
	case opRequestCancellation:
		return s.handleRequestCancellation(call)
	case opFinishAsync:
		return s.handleFinishAsync(call)
	case opMockHTTP:
		return s.handleMockHTTP(call)
	case opAckResponse:
		s.files.ackIfPresent(call.RespID)
		return nil
	default:
		return fmt.Errorf("rpc: unknown operation %q", call.Op)
	}
}

func (s *Server) handleResolveSync(ctx context.Context, call *callFrame, reply *replyFrame) error {
	req, err := s.catalogs.Deserialize(call.Req)
	if err != nil {
		return err
	}
	rctx, err := s.domains.NewContext(call.Domain, s.res, false)
	if err != nil {
		return err
	}
	v, err := resolver.ResolveWith(ctx, rctx, req, resolver.Options{ForceLocal: true})
	if err != nil {
		return err
	}
	env, err := encodeResult(v, s.files, s.blobThreshold)
	if err != nil {
		return err
	}
	reply.Result = env
	return nil
}

func (s *Server) handleSubmitAsync(_ context.Context, call *callFrame, reply *replyFrame) error {
	req, err := s.catalogs.Deserialize(call.Req)
	if err != nil {
		return err
	}
	rctx, err := s.domains.NewContext(call.Domain, s.res, true)
	if err != nil {
		return err
	}

	root := async.BuildTree(req)
	s.nodes.AddTree(root)
	rctx = rctx.WithNode(root)

	fl := &inflight{root: root, done: make(chan struct{})}
	s.mu.Lock()
	s.inflight[root.ID()] = fl
	s.mu.Unlock()

	// The resolution outlives the submitting frame; its lifetime is the
	// tree's, ended by finish_async.
	s.res.Pool.Go(func() {
		v, err := resolver.ResolveWith(context.Background(), rctx, req, resolver.Options{ForceLocal: true})
		fl.val, fl.err = v, err
		close(fl.done)
	})

	reply.AID = uint64(root.ID())
	return nil
}

func (s *Server) handleGetSubContexts(call *callFrame, reply *replyFrame) error {
	node, err := s.nodes.Find(async.ID(call.AID))
	if err != nil {
		return err
	}
	if node.Status() == async.Created {
		return fmt.Errorf("%w: subcontexts unavailable before subs_running", ErrNotReady)
	}
	for _, child := range node.Children() {
		reply.Subs = append(reply.Subs, wireSub{AID: uint64(child.ID()), IsRequest: child.IsRequest()})
	}
	return nil
}

func (s *Server) handleGetAsyncStatus(call *callFrame, reply *replyFrame) error {
	node, err := s.nodes.Find(async.ID(call.AID))
	if err != nil {
		return err
	}
	reply.Status = int32(node.Status())
	return nil
}

func (s *Server) handleGetAsyncErrorMessage(call *callFrame, reply *replyFrame) error {
	node, err := s.nodes.Find(async.ID(call.AID))
	if err != nil {
		return err
	}
	if node.Status() != async.StatusError {
		return fmt.Errorf("%w: no error message before error status", ErrNotReady)
	}
	reply.Msg = node.ErrorMessage()
	return nil
}

func (s *Server) handleGetAsyncResponse(call *callFrame, reply *replyFrame) error {
	s.mu.Lock()
	fl, ok := s.inflight[async.ID(call.AID)]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: root %d", async.ErrUnknownNode, call.AID)
	}
	select {
	case <-fl.done:
	default:
		return fmt.Errorf("%w: response unavailable before finished", ErrNotReady)
	}
	if fl.err != nil {
		return fl.err
	}
	env, err := encodeResult(fl.val, s.files, s.blobThreshold)
	if err != nil {
		return err
	}
	reply.Result = env
	return nil
}

func (s *Server) handleRequestCancellation(call *callFrame) error {
	node, err := s.nodes.Find(async.ID(call.AID))
	if err != nil {
		return err
	}
	node.RequestCancellation()
	return nil
}

func (s *Server) handleFinishAsync(call *callFrame) error {
	rootID := async.ID(call.AID)
	if _, err := s.nodes.FindRoot(rootID); err != nil {
		return err
	}
	s.nodes.RemoveTree(rootID)
	s.mu.Lock()
	delete(s.inflight, rootID)
	s.mu.Unlock()
	return nil
}

func (s *Server) handleMockHTTP(call *callFrame) error {
	if !s.testing || s.res.MockHTTP == nil {
		return errors.New("rpc: mock_http requires the testing flag")
	}
	s.res.MockHTTP.Set(call.Body)
	return nil
}

// Close releases server-side state: pending resolutions are abandoned and
// unacked blob files removed.
func (s *Server) Close() {
	if s.files != nil {
		s.files.cleanup()
	}
}

// ackIfPresent tolerates a nil receiver so acks without a blob directory
// are harmless.
func (b *blobFiles) ackIfPresent(id uint64) {
	if b == nil {
		return
	}
	b.ack(id)
}
