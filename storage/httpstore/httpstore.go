// Package httpstore implements the remote secondary-storage plugin: an
// HTTP blob service addressed as GET/PUT /blobs/{key}. Registered under the
// name "http".
package httpstore

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
	"resty.dev/v3"

	"github.com/mghro/open-cradle/config"
	"github.com/mghro/open-cradle/observe"
	"github.com/mghro/open-cradle/storage"
	"github.com/mghro/open-cradle/value"
)

// Store talks to an HTTP blob service. Concurrent reads of the same key
// collapse into one round trip.
type Store struct {
	client  *resty.Client
	baseURL string
	logger  observe.Logger
	group   singleflight.Group
}

// Options configures a Store.
type Options struct {
	// BaseURL is the service endpoint, e.g. "https://cache.example.com".
	BaseURL string

	// Token, if non-empty, is sent as a bearer credential.
	Token string

	// Timeout bounds each round trip. Default: 30s.
	Timeout time.Duration
}

// New creates an HTTP store.
func New(opts Options, logger observe.Logger) (*Store, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("httpstore: empty base URL")
	}
	if logger == nil {
		logger = observe.NopLogger()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout)
	if opts.Token != "" {
		client.SetAuthToken(opts.Token)
	}
	return &Store{client: client, baseURL: opts.BaseURL, logger: logger}, nil
}

// Name identifies the backend.
func (s *Store) Name() string { return "http" }

// Read retrieves a blob; a 404 is a miss. Concurrent reads of one key
// share a single request.
func (s *Store) Read(ctx context.Context, key string) (value.Blob, error) {
	if err := storage.ValidateKey(key); err != nil {
		return value.Blob{}, err
	}
	data, err, _ := s.group.Do(key, func() (any, error) {
		resp, err := s.client.R().
			SetContext(ctx).
			Get("/blobs/" + key)
		if err != nil {
			return nil, fmt.Errorf("httpstore: reading %s: %w", key, err)
		}
		switch resp.StatusCode() {
		case http.StatusOK:
			return resp.Bytes(), nil
		case http.StatusNotFound:
			return []byte(nil), nil
		default:
			return nil, fmt.Errorf("httpstore: reading %s: unexpected status %s", key, resp.Status())
		}
	})
	if err != nil {
		return value.Blob{}, err
	}
	raw := data.([]byte)
	if len(raw) == 0 {
		return value.Blob{}, nil
	}
	return value.NewBlob(raw), nil
}

// Write stores a blob.
func (s *Store) Write(ctx context.Context, key string, blob value.Blob) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}
	resp, err := s.client.R().
		SetContext(ctx).
		SetContentType("application/octet-stream").
		SetBody(blob.Bytes()).
		Put("/blobs/" + key)
	if err != nil {
		return fmt.Errorf("httpstore: writing %s: %w", key, err)
	}
	if resp.IsError() {
		return fmt.Errorf("httpstore: writing %s: unexpected status %s", key, resp.Status())
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Register registers the plugin on r under "http". The endpoint and token
// come from the http_cache/base_url and http_cache/token config keys.
func Register(r *storage.Registry) {
	r.Register("http", func(cfg *config.Config, logger observe.Logger) (storage.Store, error) {
		baseURL, err := cfg.GetString(config.KeyHTTPCacheBaseURL)
		if err != nil {
			return nil, err
		}
		return New(Options{
			BaseURL: baseURL,
			Token:   cfg.GetStringOr(config.KeyHTTPCacheToken, ""),
		}, logger)
	})
}

var _ storage.Store = (*Store)(nil)
