package resolver

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mghro/open-cradle/async"
	"github.com/mghro/open-cradle/remote"
	"github.com/mghro/open-cradle/request"
	"github.com/mghro/open-cradle/runtime"
	"github.com/mghro/open-cradle/storage"
	"github.com/mghro/open-cradle/value"
)

// Options pin dispatch axes at the call site. Unpinned axes follow the
// context.
type Options struct {
	// ForceLocal refuses remote dispatch. Forcing a proxy request local
	// fails with ErrNotImplemented.
	ForceLocal bool

	// ForceSync resolves synchronously even on an async context.
	ForceSync bool

	// Proxies overrides the proxy registry; nil uses the process-wide
	// one.
	Proxies *remote.Registry
}

// Resolve resolves req on rctx with default options.
func Resolve(ctx context.Context, rctx *runtime.Context, req request.Request) (value.Value, error) {
	return ResolveWith(ctx, rctx, req, Options{})
}

// ResolveWith resolves req on rctx with pinned options.
func ResolveWith(ctx context.Context, rctx *runtime.Context, req request.Request, opts Options) (value.Value, error) {
	start := time.Now()
	v, err := resolveRetrying(ctx, rctx, req, opts)
	if res := rctx.Resources(); res != nil {
		res.ResolveMetrics.Observe(ctx, time.Since(start), rctx.Remotely())
	}
	return v, err
}

// resolveRetrying wraps dispatch in the request's retry policy, if any.
// Each delay waits on the context's cancellable scheduler.
func resolveRetrying(ctx context.Context, rctx *runtime.Context, req request.Request, opts Options) (value.Value, error) {
	retrier := req.Retrier()
	if retrier == nil {
		return resolveDispatch(ctx, rctx, req, opts)
	}

	var out value.Value
	err := executeWithRetrier(ctx, rctx, retrier, func(ctx context.Context) error {
		v, err := resolveDispatch(ctx, rctx, req, opts)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		return value.Value{}, err
	}
	return out, nil
}

// resolveDispatch picks the remote-vs-local axis.
func resolveDispatch(ctx context.Context, rctx *runtime.Context, req request.Request, opts Options) (value.Value, error) {
	if req.ProxyOnly() && opts.ForceLocal {
		return value.Value{}, ErrNotImplemented
	}
	if (rctx.Remotely() || req.ProxyOnly()) && !opts.ForceLocal {
		return resolveRemote(ctx, rctx, req, opts)
	}

	// Async bootstrap: the root builds the node tree; subrequests arrive
	// here with their node already attached.
	if rctx.Async() && rctx.CurrentNode() == nil {
		root := async.BuildTree(req)
		rctx = rctx.WithNode(root)
	}
	return resolveLocal(ctx, rctx, req, opts)
}

// resolveLocal picks the cached-vs-uncached axis.
func resolveLocal(ctx context.Context, rctx *runtime.Context, req request.Request, opts Options) (value.Value, error) {
	node := rctx.CurrentNode()
	if node != nil {
		if err := node.ThrowIfCancelled(); err != nil {
			return value.Value{}, err
		}
	}

	if req.Introspective() {
		tasklet := rctx.Resources().Tasklets.NewTasklet("resolve", req.Title(), rctx.Tasklet())
		if tasklet != nil {
			rctx = rctx.WithTasklet(tasklet)
			tasklet.OnRunning()
			defer tasklet.OnFinished()
		}
	}

	if req.CachingLevel() == request.CacheNone {
		return invokeBody(ctx, rctx, req, opts)
	}

	cache := rctx.Resources().MemoryCache
	handle, _ := cache.GetOrCreate(ctx, req.ID(), func(fctx context.Context) (value.Value, error) {
		return resolveSecondary(fctx, rctx, req, opts)
	})
	defer handle.Release()

	// The await is a suspension point: it observes node cancellation as
	// well as go-context cancellation.
	waitCtx := ctx
	if node != nil {
		wctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			select {
			case <-node.CancelChan():
				cancel()
			case <-wctx.Done():
			}
		}()
		waitCtx = wctx
	}

	rctx.Tasklet().OnBeforeAwait("memory cache")
	v, err := handle.Await(waitCtx)
	rctx.Tasklet().OnAfterAwait()
	if err != nil && node != nil && node.CancelRequested() {
		err = async.ErrCancelled
	}

	finishNode(node, err)
	if err != nil {
		return value.Value{}, err
	}
	return v, nil
}

// resolveSecondary runs inside the memory cache's factory: for a
// fully-cached request it goes through the secondary gateway, otherwise
// straight to the body.
func resolveSecondary(ctx context.Context, rctx *runtime.Context, req request.Request, opts Options) (value.Value, error) {
	res := rctx.Resources()
	if req.CachingLevel() != request.CacheFull || res.Secondary == nil {
		return invokeBody(ctx, rctx, req, opts)
	}

	digest, err := req.Digest()
	if err != nil {
		return value.Value{}, errors.Join(ErrNoDigest, err)
	}

	rctx.Tasklet().OnBeforeAwait("secondary storage")
	defer rctx.Tasklet().OnAfterAwait()
	return storage.ReadThrough(ctx, res.Secondary, digest, func(ctx context.Context) (value.Value, error) {
		return invokeBody(ctx, rctx, req, opts)
	}, rctx.Logger())
}

// invokeBody resolves the arguments concurrently, then runs the request's
// own body.
func invokeBody(ctx context.Context, rctx *runtime.Context, req request.Request, opts Options) (v value.Value, err error) {
	node := rctx.CurrentNode()
	defer func() { finishNode(node, err) }()

	args := req.Args()
	vals := make([]value.Value, len(args))
	if len(args) > 0 {
		if node != nil {
			node.SetStatus(async.SubsRunning)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i, arg := range args {
			i, arg := i, arg
			childCtx := rctx
			if node != nil && i < len(node.Children()) {
				childCtx = rctx.WithNode(node.Children()[i])
			}
			g.Go(func() error {
				sub, err := resolveDispatch(gctx, childCtx, arg, opts)
				if err != nil {
					return err
				}
				vals[i] = sub
				return nil
			})
		}
		rctx.Tasklet().OnBeforeAwait("subrequests")
		err = g.Wait()
		rctx.Tasklet().OnAfterAwait()
		if err != nil {
			return value.Value{}, err
		}
	}

	if node != nil {
		if err = node.ThrowIfCancelled(); err != nil {
			return value.Value{}, err
		}
		node.SetStatus(async.SelfRunning)
	}

	return req.Invoke(runtime.Into(ctx, rctx), vals)
}

// finishNode maps an outcome onto the node's terminal status.
func finishNode(node *async.Node, err error) {
	if node == nil {
		return
	}
	switch {
	case err == nil:
		node.SetStatus(async.Finished)
	case errors.Is(err, async.ErrCancelled):
		node.SetStatus(async.Cancelled)
	default:
		node.SetError(err.Error())
	}
}
