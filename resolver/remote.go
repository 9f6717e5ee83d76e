package resolver

import (
	"context"
	"errors"
	"time"

	"github.com/mghro/open-cradle/async"
	"github.com/mghro/open-cradle/catalog"
	"github.com/mghro/open-cradle/codec"
	"github.com/mghro/open-cradle/observe"
	"github.com/mghro/open-cradle/remote"
	"github.com/mghro/open-cradle/request"
	"github.com/mghro/open-cradle/resilience"
	"github.com/mghro/open-cradle/runtime"
	"github.com/mghro/open-cradle/value"
)

// Polling cadence for remote async resolutions.
const (
	pollInitial = 10 * time.Millisecond
	pollMax     = 250 * time.Millisecond
)

// resolveRemote serializes the request and hands it to the context's
// proxy: synchronously, or submit-and-poll on an async context.
func resolveRemote(ctx context.Context, rctx *runtime.Context, req request.Request, opts Options) (value.Value, error) {
	proxies := opts.Proxies
	if proxies == nil {
		proxies = remote.Default()
	}
	proxy, err := proxies.Find(rctx.ProxyName())
	if err != nil {
		return value.Value{}, err
	}

	seriReq, err := catalog.Serialize(req)
	if err != nil {
		return value.Value{}, err
	}

	if !rctx.Async() || opts.ForceSync {
		data, err := proxy.ResolveSync(ctx, rctx.Domain(), seriReq)
		if err != nil {
			return value.Value{}, err
		}
		return codec.DecodeMsgpack(data)
	}
	return resolveRemoteAsync(ctx, rctx, proxy, seriReq)
}

// resolveRemoteAsync submits, polls until terminal, fetches the result,
// and always finishes the remote tree.
func resolveRemoteAsync(ctx context.Context, rctx *runtime.Context, proxy remote.Proxy, seriReq []byte) (value.Value, error) {
	aid, err := proxy.SubmitAsync(ctx, rctx.Domain(), seriReq)
	if err != nil {
		return value.Value{}, err
	}
	defer func() {
		// Server-side state is released even when resolution failed.
		if err := proxy.FinishAsync(context.WithoutCancel(ctx), aid); err != nil {
			rctx.Logger().Warn(ctx, "resolver: finish_async failed",
				observe.F("error", err.Error()), observe.F("aid", uint64(aid)))
		}
	}()

	node := rctx.CurrentNode()
	cancelled := false
	delay := pollInitial
	for {
		if node != nil && node.CancelRequested() && !cancelled {
			if err := proxy.RequestCancellation(ctx, aid); err != nil {
				return value.Value{}, err
			}
			cancelled = true
		}

		status, err := proxy.GetAsyncStatus(ctx, aid)
		if err != nil {
			return value.Value{}, err
		}
		if node != nil {
			node.SetStatus(status)
		}

		switch status {
		case async.Finished, async.AwaitingResult:
			data, err := proxy.GetAsyncResponse(ctx, aid)
			if err != nil {
				return value.Value{}, err
			}
			if node != nil {
				node.SetStatus(async.Finished)
			}
			return codec.DecodeMsgpack(data)
		case async.Cancelled:
			return value.Value{}, async.ErrCancelled
		case async.StatusError:
			msg, err := proxy.GetAsyncErrorMessage(ctx, aid)
			if err != nil {
				return value.Value{}, err
			}
			return value.Value{}, &remote.RemoteError{Op: "resolve", Msg: msg}
		}

		rctx.Tasklet().OnBeforeAwait("remote poll")
		var sleepErr error
		if cancelled {
			// Already forwarded; plain sleep until the remote reaches a
			// terminal state.
			sleepErr = resilience.SleepTimer(ctx, delay)
		} else {
			sleepErr = rctx.ScheduleAfter(ctx, delay)
		}
		rctx.Tasklet().OnAfterAwait()
		if sleepErr != nil {
			if errors.Is(sleepErr, async.ErrCancelled) {
				// Local cancellation: forward it on the next iteration
				// and keep polling so the remote terminates first.
				continue
			}
			return value.Value{}, sleepErr
		}
		if delay *= 2; delay > pollMax {
			delay = pollMax
		}
	}
}
