package storage

import (
	"context"

	"github.com/mghro/open-cradle/codec"
	"github.com/mghro/open-cradle/identity"
	"github.com/mghro/open-cradle/observe"
	"github.com/mghro/open-cradle/value"
)

// Compute produces a value when secondary storage has no entry for it.
type Compute func(ctx context.Context) (value.Value, error)

// ReadThrough resolves a fully-cached computation through the store: a
// present entry is decoded and returned; otherwise compute runs and its
// result is written back. Backend read errors degrade to a miss; write
// errors are logged and dropped. Resolution never fails because storage
// did.
func ReadThrough(ctx context.Context, store Store, digest identity.Digest, compute Compute, logger observe.Logger) (value.Value, error) {
	if logger == nil {
		logger = observe.NopLogger()
	}
	key := digest.Hex()

	blob, err := store.Read(ctx, key)
	if err != nil {
		logger.Warn(ctx, "storage: read failed, treating as miss",
			observe.F("store", store.Name()), observe.F("key", key), observe.F("error", err.Error()))
	} else if !blob.IsEmpty() {
		v, err := codec.DecodeBytes(blob.Bytes())
		if err != nil {
			logger.Warn(ctx, "storage: undecodable entry, treating as miss",
				observe.F("store", store.Name()), observe.F("key", key), observe.F("error", err.Error()))
		} else {
			return v, nil
		}
	}

	v, err := compute(ctx)
	if err != nil {
		return value.Value{}, err
	}

	data, err := codec.EncodeBytes(v)
	if err != nil {
		logger.Warn(ctx, "storage: result not encodable, skipping write",
			observe.F("store", store.Name()), observe.F("key", key), observe.F("error", err.Error()))
		return v, nil
	}
	if err := store.Write(ctx, key, value.NewBlob(data)); err != nil {
		logger.Warn(ctx, "storage: write failed",
			observe.F("store", store.Name()), observe.F("key", key), observe.F("error", err.Error()))
	}
	return v, nil
}
