package resolver

import (
	"context"
	"time"

	"github.com/mghro/open-cradle/resilience"
	"github.com/mghro/open-cradle/runtime"
)

// executeWithRetrier runs op under the request's retry policy, scheduling
// the delays through the context's cancellable ScheduleAfter so a pending
// retry observes cancellation.
func executeWithRetrier(ctx context.Context, rctx *runtime.Context, retrier resilience.Retrier, op func(context.Context) error) error {
	sleep := func(ctx context.Context, d time.Duration) error {
		return rctx.ScheduleAfter(ctx, d)
	}
	return resilience.Execute(ctx, retrier, sleep, op)
}
