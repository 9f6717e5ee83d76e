package resilience

import "errors"

// Sentinel errors for resilience operations.
var (
	// ErrTimeout is returned when an operation exceeds its time budget.
	ErrTimeout = errors.New("resilience: operation timed out")

	// ErrBulkheadFull is returned when the bulkhead is at capacity and
	// waiting is disabled.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")
)

// nonRetryable is implemented by errors that must never trigger a retry,
// cancellation in particular.
type nonRetryable interface {
	NonRetryable() bool
}

// IsNonRetryable reports whether err declares itself exempt from retrying.
func IsNonRetryable(err error) bool {
	var nr nonRetryable
	return errors.As(err, &nr) && nr.NonRetryable()
}
