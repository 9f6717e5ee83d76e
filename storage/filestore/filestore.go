// Package filestore implements the local secondary-storage plugin: a
// sharded directory of digest-keyed blob files. Registered under the name
// "local".
package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mghro/open-cradle/config"
	"github.com/mghro/open-cradle/observe"
	"github.com/mghro/open-cradle/storage"
	"github.com/mghro/open-cradle/value"
)

// Store keeps blobs under {root}/{key[0:2]}/{key}.
type Store struct {
	root   string
	logger observe.Logger
}

// New creates a file store rooted at dir, creating it if needed.
func New(dir string, logger observe.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("filestore: empty directory")
	}
	if logger == nil {
		logger = observe.NopLogger()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: creating root: %w", err)
	}
	return &Store{root: dir, logger: logger}, nil
}

// Name identifies the backend.
func (s *Store) Name() string { return "local" }

// shard spreads entries over 256 subdirectories by key prefix.
func shard(key string) string {
	if len(key) < 2 {
		return "00"
	}
	return key[:2]
}

func (s *Store) path(key string) string {
	return filepath.Join(s.root, shard(key), key)
}

// Read retrieves a blob; absent keys return an empty blob.
func (s *Store) Read(_ context.Context, key string) (value.Blob, error) {
	if err := storage.ValidateKey(key); err != nil {
		return value.Blob{}, err
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return value.Blob{}, nil
		}
		return value.Blob{}, fmt.Errorf("filestore: reading %s: %w", key, err)
	}
	return value.NewBlob(data), nil
}

// Write stores a blob, writing to a temporary file and renaming so readers
// never observe a partial entry.
func (s *Store) Write(_ context.Context, key string, blob value.Blob) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}
	dir := filepath.Join(s.root, shard(key))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("filestore: creating shard: %w", err)
	}
	tmp, err := os.CreateTemp(dir, key+".tmp*")
	if err != nil {
		return fmt.Errorf("filestore: creating temp file: %w", err)
	}
	if _, err := tmp.Write(blob.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("filestore: writing %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("filestore: closing %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("filestore: publishing %s: %w", key, err)
	}
	return nil
}

// Register registers the plugin on r under "local". The root directory
// comes from the disk_cache/directory config key.
func Register(r *storage.Registry) {
	r.Register("local", func(cfg *config.Config, logger observe.Logger) (storage.Store, error) {
		dir, err := cfg.GetString(config.KeyDiskCacheDir)
		if err != nil {
			return nil, err
		}
		return New(dir, logger)
	})
}

var _ storage.Store = (*Store)(nil)
