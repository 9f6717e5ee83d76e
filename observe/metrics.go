package observe

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CacheMetrics records memory-cache activity.
type CacheMetrics struct {
	hits      metric.Int64Counter
	misses    metric.Int64Counter
	evictions metric.Int64Counter
}

// NewCacheMetrics creates the cache instrument set on the given meter.
func NewCacheMetrics(meter metric.Meter) (*CacheMetrics, error) {
	hits, err := meter.Int64Counter("cradle.cache.hits",
		metric.WithDescription("Memory-cache lookups that found an existing record"))
	if err != nil {
		return nil, fmt.Errorf("observe: creating hit counter: %w", err)
	}
	misses, err := meter.Int64Counter("cradle.cache.misses",
		metric.WithDescription("Memory-cache lookups that created a fresh record"))
	if err != nil {
		return nil, fmt.Errorf("observe: creating miss counter: %w", err)
	}
	evictions, err := meter.Int64Counter("cradle.cache.evictions",
		metric.WithDescription("Records evicted from the unused list"))
	if err != nil {
		return nil, fmt.Errorf("observe: creating eviction counter: %w", err)
	}
	return &CacheMetrics{hits: hits, misses: misses, evictions: evictions}, nil
}

// Hit records a cache hit.
func (m *CacheMetrics) Hit(ctx context.Context) {
	if m == nil {
		return
	}
	m.hits.Add(ctx, 1)
}

// Miss records a cache miss.
func (m *CacheMetrics) Miss(ctx context.Context) {
	if m == nil {
		return
	}
	m.misses.Add(ctx, 1)
}

// Eviction records n evicted records.
func (m *CacheMetrics) Eviction(ctx context.Context, n int64) {
	if m == nil {
		return
	}
	m.evictions.Add(ctx, n)
}

// ResolveMetrics records request-resolution activity.
type ResolveMetrics struct {
	duration metric.Float64Histogram
}

// NewResolveMetrics creates the resolution instrument set on the given
// meter.
func NewResolveMetrics(meter metric.Meter) (*ResolveMetrics, error) {
	duration, err := meter.Float64Histogram("cradle.resolve.duration",
		metric.WithDescription("Wall time of a request resolution in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("observe: creating duration histogram: %w", err)
	}
	return &ResolveMetrics{duration: duration}, nil
}

// Observe records one resolution.
func (m *ResolveMetrics) Observe(ctx context.Context, d time.Duration, remote bool) {
	if m == nil {
		return
	}
	m.duration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.Bool("remote", remote)))
}
