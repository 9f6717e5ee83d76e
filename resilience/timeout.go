package resilience

import (
	"context"
	"errors"
	"time"
)

// Timeout bounds the duration of an operation. The rpc client wraps every
// remote call in one.
type Timeout struct {
	limit time.Duration
}

// NewTimeout creates a timeout with the given limit. A non-positive limit
// defaults to 30s.
func NewTimeout(limit time.Duration) *Timeout {
	if limit <= 0 {
		limit = 30 * time.Second
	}
	return &Timeout{limit: limit}
}

// Limit returns the configured limit.
func (t *Timeout) Limit() time.Duration { return t.limit }

// Execute runs op with a deadline. A deadline overrun maps to ErrTimeout;
// other context errors pass through unchanged.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	tctx, cancel := context.WithTimeout(ctx, t.limit)
	defer cancel()
	err := op(tctx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return ErrTimeout
	}
	return err
}
