package health

import (
	"context"
	"fmt"

	"github.com/mghro/open-cradle/memcache"
)

// CacheCheckerConfig configures the memory-cache checker.
type CacheCheckerConfig struct {
	// WarningRatio of unused bytes to the configured limit that triggers
	// degraded status. Default: 0.8.
	WarningRatio float64
}

// CacheChecker reports pressure on the memory cache's unused-byte budget.
// A cache persistently at its limit is churning records.
type CacheChecker struct {
	cache  *memcache.Cache
	config CacheCheckerConfig
}

// NewCacheChecker creates a checker over the given cache.
func NewCacheChecker(cache *memcache.Cache, config CacheCheckerConfig) *CacheChecker {
	if config.WarningRatio <= 0 || config.WarningRatio >= 1 {
		config.WarningRatio = 0.8
	}
	return &CacheChecker{cache: cache, config: config}
}

// Name returns the name of this checker.
func (c *CacheChecker) Name() string { return "memory_cache" }

// Check performs the health check.
func (c *CacheChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	current, limit := c.cache.UnusedSize()
	details := map[string]any{
		"unused_bytes": current,
		"limit_bytes":  limit,
		"entries":      c.cache.Info().EntryCount,
	}

	ratio := float64(current) / float64(limit)
	if ratio >= c.config.WarningRatio {
		return Degraded(fmt.Sprintf("unused bytes at %.0f%% of limit", ratio*100)).WithDetails(details)
	}
	return Healthy("cache within budget").WithDetails(details)
}

var _ Checker = (*CacheChecker)(nil)
