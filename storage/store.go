package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/mghro/open-cradle/value"
)

// MaxKeyLength is the maximum allowed length for a storage key.
const MaxKeyLength = 512

// Sentinel errors for storage operations.
var (
	// ErrInvalidKey is returned for empty keys or keys with control
	// characters.
	ErrInvalidKey = errors.New("storage: key is invalid")

	// ErrKeyTooLong is returned when a key exceeds MaxKeyLength.
	ErrKeyTooLong = errors.New("storage: key exceeds max length")

	// ErrUnknownPlugin is returned when no factory is registered under
	// the requested name.
	ErrUnknownPlugin = errors.New("storage: unknown plugin")
)

// Store is the interface to a secondary cache backend.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Read returns an empty blob iff the key is absent; it errors only on
//   real backend failures.
// - Write may complete asynchronously; callers treat its errors as
//   best-effort losses.
type Store interface {
	// Name identifies the backend for diagnostics.
	Name() string

	// Read retrieves the blob stored at key.
	Read(ctx context.Context, key string) (value.Blob, error)

	// Write stores a blob at key.
	Write(ctx context.Context, key string, blob value.Blob) error
}

// ValidateKey checks if a key is usable with any backend.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	for i := 0; i < len(key); i++ {
		if c := key[i]; c < 0x20 || c == 0x7f {
			return ErrInvalidKey
		}
	}
	return nil
}
