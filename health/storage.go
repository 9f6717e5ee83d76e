package health

import (
	"context"

	"github.com/mghro/open-cradle/storage"
)

// probeKey is a reserved key no digest can collide with (digests are hex).
const probeKey = "zz-health-probe"

// StorageChecker probes the secondary store with a read of a reserved key.
// A miss is healthy; only a backend failure reports unhealthy.
type StorageChecker struct {
	store storage.Store
}

// NewStorageChecker creates a checker over the given store.
func NewStorageChecker(store storage.Store) *StorageChecker {
	return &StorageChecker{store: store}
}

// Name returns the name of this checker.
func (c *StorageChecker) Name() string { return "secondary_storage" }

// Check performs the health check.
func (c *StorageChecker) Check(ctx context.Context) Result {
	if _, err := c.store.Read(ctx, probeKey); err != nil {
		return Unhealthy("secondary storage unreachable", err).WithDetails(map[string]any{
			"store": c.store.Name(),
		})
	}
	return Healthy("secondary storage reachable").WithDetails(map[string]any{
		"store": c.store.Name(),
	})
}

var _ Checker = (*StorageChecker)(nil)
