package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mghro/open-cradle/catalog"
	"github.com/mghro/open-cradle/config"
	"github.com/mghro/open-cradle/health"
	"github.com/mghro/open-cradle/observe"
	"github.com/mghro/open-cradle/rpc"
	"github.com/mghro/open-cradle/runtime"
	"github.com/mghro/open-cradle/storage"
	"github.com/mghro/open-cradle/storage/filestore"
	"github.com/mghro/open-cradle/storage/httpstore"
	"github.com/mghro/open-cradle/testdomain"
)

// app wires configuration, resources, the rpc server, and health probes
// into one HTTP server.
type app struct {
	cfg    *config.Config
	obs    *observe.Observer
	res    *runtime.Resources
	rpcSrv *rpc.Server
	http   *http.Server
}

func newApp(configPath string) (*app, error) {
	cfg := config.Empty()
	if configPath != "" {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	obs, err := observe.New(context.Background(), observe.Config{
		ServiceName: "cradled",
		Version:     rpc.Version,
		Tracing: observe.TracingConfig{
			Enabled:   cfg.GetBoolOr("observe/tracing", false),
			Exporter:  cfg.GetStringOr("observe/tracing_exporter", "none"),
			SamplePct: 1.0,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  cfg.GetBoolOr("observe/metrics", false),
			Exporter: cfg.GetStringOr("observe/metrics_exporter", "none"),
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   cfg.GetStringOr("observe/log_level", "info"),
		},
	})
	if err != nil {
		return nil, err
	}

	// Secondary-storage plugins selectable via disk_cache/factory.
	plugins := storage.NewRegistry()
	storage.RegisterMemoryPlugin(plugins)
	filestore.Register(plugins)
	httpstore.Register(plugins)

	res, err := runtime.NewResources(cfg, plugins, obs)
	if err != nil {
		return nil, err
	}

	domains := runtime.Domains()
	catalogs := catalog.Default()
	if cfg.GetBoolOr(config.KeyTesting, false) {
		if _, err := testdomain.Install(domains, catalogs); err != nil {
			return nil, err
		}
		res.Tasklets.SetCapture(true)
	}

	rpcSrv := rpc.NewServer(cfg, res, domains, catalogs)

	agg := health.NewAggregator(0)
	agg.Register("memory_cache", health.NewCacheChecker(res.MemoryCache, health.CacheCheckerConfig{}))
	if res.Secondary != nil {
		agg.Register("secondary_storage", health.NewStorageChecker(res.Secondary))
	}

	mux := http.NewServeMux()
	mux.Handle("/rpc", rpcSrv.Handler())
	mux.HandleFunc("/livez", health.LivenessHandler())
	mux.HandleFunc("/readyz", health.ReadinessHandler(agg))
	mux.HandleFunc("/healthz", health.DetailHandler(agg))

	port := cfg.GetIntOr(config.KeyPort, 8098)
	return &app{
		cfg:    cfg,
		obs:    obs,
		res:    res,
		rpcSrv: rpcSrv,
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Serve blocks until the listener fails or Shutdown is called.
func (a *app) Serve() error {
	a.obs.Logger().Info(context.Background(), "cradled listening",
		observe.F("addr", a.http.Addr),
		observe.F("version", rpc.Version))
	return a.http.ListenAndServe()
}

// Shutdown drains the HTTP server.
func (a *app) Shutdown(ctx context.Context) error {
	return a.http.Shutdown(ctx)
}

// Close releases server state and flushes telemetry.
func (a *app) Close() {
	a.rpcSrv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.obs.Shutdown(ctx)
}
