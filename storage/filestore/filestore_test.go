package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mghro/open-cradle/config"
	"github.com/mghro/open-cradle/storage"
	"github.com/mghro/open-cradle/value"
)

func TestReadWriteRoundTrip(t *testing.T) {
	store, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()
	key := "deadbeef00112233"
	payload := []byte("cached result")

	// Absent key is a miss, not an error.
	blob, err := store.Read(ctx, key)
	if err != nil {
		t.Fatalf("Read of absent key failed: %v", err)
	}
	if !blob.IsEmpty() {
		t.Fatal("absent key should read as an empty blob")
	}

	if err := store.Write(ctx, key, value.NewBlob(payload)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	blob, err = store.Read(ctx, key)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(blob.Bytes()) != string(payload) {
		t.Errorf("Read = %q, want %q", blob.Bytes(), payload)
	}
}

func TestShardedLayout(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	key := "ab54feed"
	if err := store.Write(context.Background(), key, value.NewBlob([]byte{1})); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "ab", key)); err != nil {
		t.Errorf("entry not at sharded path: %v", err)
	}

	// No stray temp files after a successful write.
	entries, err := os.ReadDir(filepath.Join(dir, "ab"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("shard has %d files, want 1", len(entries))
	}
}

func TestOverwrite(t *testing.T) {
	store, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	key := "cafe0123"
	if err := store.Write(ctx, key, value.NewBlob([]byte("old"))); err != nil {
		t.Fatal(err)
	}
	if err := store.Write(ctx, key, value.NewBlob([]byte("new"))); err != nil {
		t.Fatal(err)
	}
	blob, err := store.Read(ctx, key)
	if err != nil || string(blob.Bytes()) != "new" {
		t.Errorf("Read after overwrite = (%q, %v)", blob.Bytes(), err)
	}
}

func TestRegister(t *testing.T) {
	r := storage.NewRegistry()
	Register(r)

	cfg := config.New(map[string]any{config.KeyDiskCacheDir: t.TempDir()})
	store, err := r.Create("local", cfg, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if store.Name() != "local" {
		t.Errorf("Name = %q, want local", store.Name())
	}

	// Missing directory key fails construction.
	if _, err := r.Create("local", config.Empty(), nil); err == nil {
		t.Error("Create without directory should fail")
	}
}
