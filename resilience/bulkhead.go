package resilience

import "context"

// Bulkhead caps the number of operations running concurrently. The rpc
// server uses one sized by the rpclib/request_concurrency config key.
type Bulkhead struct {
	slots chan struct{}
	wait  bool
}

// NewBulkhead creates a bulkhead with the given capacity. A non-positive
// capacity defaults to 16. When wait is true, Execute blocks for a slot;
// otherwise it fails fast with ErrBulkheadFull.
func NewBulkhead(capacity int, wait bool) *Bulkhead {
	if capacity <= 0 {
		capacity = 16
	}
	return &Bulkhead{
		slots: make(chan struct{}, capacity),
		wait:  wait,
	}
}

// Capacity returns the configured capacity.
func (b *Bulkhead) Capacity() int { return cap(b.slots) }

// InFlight returns the number of currently held slots.
func (b *Bulkhead) InFlight() int { return len(b.slots) }

// Execute runs op while holding a slot.
func (b *Bulkhead) Execute(ctx context.Context, op func(context.Context) error) error {
	if b.wait {
		select {
		case b.slots <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	} else {
		select {
		case b.slots <- struct{}{}:
		default:
			return ErrBulkheadFull
		}
	}
	defer func() { <-b.slots }()
	return op(ctx)
}
