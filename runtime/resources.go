package runtime

import (
	"fmt"

	"github.com/mghro/open-cradle/async"
	"github.com/mghro/open-cradle/config"
	"github.com/mghro/open-cradle/introspect"
	"github.com/mghro/open-cradle/memcache"
	"github.com/mghro/open-cradle/observe"
	"github.com/mghro/open-cradle/storage"
)

// Resources bundles the long-lived collaborators shared by every
// resolution in a process.
type Resources struct {
	// MemoryCache is the in-process result cache.
	MemoryCache *memcache.Cache

	// Secondary is the secondary storage, or nil when not configured.
	Secondary storage.Store

	// Pool is the worker pool resolutions run on.
	Pool *async.Pool

	// Tasklets is the introspection admin.
	Tasklets *introspect.Admin

	// Observer is the telemetry surface.
	Observer *observe.Observer

	// ResolveMetrics records resolution latency.
	ResolveMetrics *observe.ResolveMetrics

	// BlobDir, when non-empty, is where shared blob files are created for
	// cross-process transport.
	BlobDir string

	// Config is the service configuration the resources were built from.
	Config *config.Config

	// MockHTTP is the canned-HTTP test hook; nil unless the testing
	// config flag is set.
	MockHTTP *MockHTTPResponder
}

// NewResources builds resources from configuration. The secondary store is
// constructed through the plugin registry when disk_cache/factory is set.
func NewResources(cfg *config.Config, plugins *storage.Registry, obs *observe.Observer) (*Resources, error) {
	if cfg == nil {
		cfg = config.Empty()
	}
	if obs == nil {
		obs = observe.Noop()
	}
	if plugins == nil {
		plugins = storage.Default()
	}

	metrics, err := observe.NewCacheMetrics(obs.Meter())
	if err != nil {
		return nil, fmt.Errorf("runtime: creating cache metrics: %w", err)
	}
	resolveMetrics, err := observe.NewResolveMetrics(obs.Meter())
	if err != nil {
		return nil, fmt.Errorf("runtime: creating resolve metrics: %w", err)
	}

	res := &Resources{
		MemoryCache: memcache.New(memcache.Config{
			UnusedSizeLimit: cfg.GetIntOr(config.KeyUnusedSizeLimit, 0),
			Logger:          obs.Logger(),
			Metrics:         metrics,
		}),
		Pool:           async.NewPool(int(cfg.GetIntOr(config.KeyRequestConcurrency, 16))),
		Tasklets:       introspect.NewAdmin(),
		Observer:       obs,
		ResolveMetrics: resolveMetrics,
		BlobDir:        cfg.GetStringOr(config.KeyBlobDir, ""),
		Config:         cfg,
	}

	if cfg.GetBoolOr(config.KeyTesting, false) {
		res.MockHTTP = &MockHTTPResponder{}
	}

	if name := cfg.GetStringOr(config.KeyDiskCacheFactory, ""); name != "" {
		store, err := plugins.Create(name, cfg, obs.Logger())
		if err != nil {
			return nil, fmt.Errorf("runtime: creating secondary storage: %w", err)
		}
		res.Secondary = store
	}
	return res, nil
}
