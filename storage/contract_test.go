package storage_test

import (
	"context"
	"testing"

	"github.com/mghro/open-cradle/storage"
	"github.com/mghro/open-cradle/storage/filestore"
	"github.com/mghro/open-cradle/value"
)

// The Store contract, checked against the in-memory and local file stores:
// reads of absent keys are empty-blob misses, writes round-trip, and
// invalid keys are rejected.
func TestStoreContract(t *testing.T) {
	stores := map[string]storage.Store{
		"memory": storage.NewMemoryStore(),
	}
	fs, err := filestore.New(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	stores["local"] = fs

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			blob, err := store.Read(ctx, "cafe00aa")
			if err != nil {
				t.Fatalf("Read of absent key errored: %v", err)
			}
			if !blob.IsEmpty() {
				t.Fatal("absent key must read as an empty blob")
			}

			payload := []byte{1, 2, 3}
			if err := store.Write(ctx, "cafe00aa", value.NewBlob(payload)); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			blob, err = store.Read(ctx, "cafe00aa")
			if err != nil || string(blob.Bytes()) != string(payload) {
				t.Errorf("Read = (%v, %v)", blob.Bytes(), err)
			}

			if _, err := store.Read(ctx, ""); err == nil {
				t.Error("empty key must be rejected")
			}
			if err := store.Write(ctx, "bad\nkey", value.NewBlob(payload)); err == nil {
				t.Error("key with newline must be rejected")
			}
		})
	}
}
