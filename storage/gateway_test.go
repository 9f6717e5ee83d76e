package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/mghro/open-cradle/codec"
	"github.com/mghro/open-cradle/config"
	"github.com/mghro/open-cradle/identity"
	"github.com/mghro/open-cradle/observe"
	"github.com/mghro/open-cradle/value"
)

func digestOf(t *testing.T, s string) identity.Digest {
	t.Helper()
	h := identity.NewHasher()
	h.WriteUUID(s)
	return h.Sum()
}

func TestReadThrough_MissComputesAndWrites(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	dig := digestOf(t, "r1")

	computes := 0
	compute := func(context.Context) (value.Value, error) {
		computes++
		return value.Int(42), nil
	}

	got, err := ReadThrough(ctx, store, dig, compute, nil)
	if err != nil || !value.Equal(got, value.Int(42)) {
		t.Fatalf("ReadThrough = (%s, %v)", got, err)
	}
	if computes != 1 {
		t.Errorf("compute ran %d times, want 1", computes)
	}

	// The entry round-trips through the store.
	blob, err := store.Read(ctx, dig.Hex())
	if err != nil || blob.IsEmpty() {
		t.Fatalf("stored entry missing: (%v, %v)", blob, err)
	}
	decoded, err := codec.DecodeBytes(blob.Bytes())
	if err != nil || !value.Equal(decoded, value.Int(42)) {
		t.Errorf("stored entry = (%s, %v)", decoded, err)
	}

	// A second read-through hits without computing.
	got, err = ReadThrough(ctx, store, dig, compute, nil)
	if err != nil || !value.Equal(got, value.Int(42)) {
		t.Fatalf("second ReadThrough = (%s, %v)", got, err)
	}
	if computes != 1 {
		t.Errorf("compute ran %d times after hit, want 1", computes)
	}
}

func TestReadThrough_ComputeErrorPropagates(t *testing.T) {
	store := NewMemoryStore()
	boom := errors.New("boom")
	_, err := ReadThrough(context.Background(), store, digestOf(t, "r2"),
		func(context.Context) (value.Value, error) { return value.Value{}, boom }, nil)
	if !errors.Is(err, boom) {
		t.Errorf("ReadThrough = %v, want boom", err)
	}
	if store.Len() != 0 {
		t.Error("failed computation must not be written")
	}
}

type failingStore struct {
	readErr  error
	writeErr error
	inner    *MemoryStore
}

func (f *failingStore) Name() string { return "failing" }

func (f *failingStore) Read(ctx context.Context, key string) (value.Blob, error) {
	if f.readErr != nil {
		return value.Blob{}, f.readErr
	}
	return f.inner.Read(ctx, key)
}

func (f *failingStore) Write(ctx context.Context, key string, blob value.Blob) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	return f.inner.Write(ctx, key, blob)
}

func TestReadThrough_BackendErrorsAreNotFatal(t *testing.T) {
	store := &failingStore{
		readErr:  errors.New("read down"),
		writeErr: errors.New("write down"),
		inner:    NewMemoryStore(),
	}
	got, err := ReadThrough(context.Background(), store, digestOf(t, "r3"),
		func(context.Context) (value.Value, error) { return value.Int(7), nil },
		observe.NopLogger())
	if err != nil || !value.Equal(got, value.Int(7)) {
		t.Errorf("ReadThrough = (%s, %v), want (7, nil)", got, err)
	}
}

func TestRegistry_CreateAndUnknown(t *testing.T) {
	r := NewRegistry()
	RegisterMemoryPlugin(r)

	store, err := r.Create("memory", config.Empty(), nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if store.Name() != "memory" {
		t.Errorf("Name = %q, want memory", store.Name())
	}

	if _, err := r.Create("sqlite", config.Empty(), nil); !errors.Is(err, ErrUnknownPlugin) {
		t.Errorf("Create unknown = %v, want ErrUnknownPlugin", err)
	}
}

func TestValidateKey(t *testing.T) {
	if err := ValidateKey("abc123"); err != nil {
		t.Errorf("valid key rejected: %v", err)
	}
	if err := ValidateKey(""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("empty key = %v, want ErrInvalidKey", err)
	}
	if err := ValidateKey("a\nb"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("newline key = %v, want ErrInvalidKey", err)
	}
	long := make([]byte, MaxKeyLength+1)
	for i := range long {
		long[i] = 'x'
	}
	if err := ValidateKey(string(long)); !errors.Is(err, ErrKeyTooLong) {
		t.Errorf("long key = %v, want ErrKeyTooLong", err)
	}
}
