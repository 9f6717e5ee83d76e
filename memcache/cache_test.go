package memcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mghro/open-cradle/identity"
	"github.com/mghro/open-cradle/value"
)

func key(i int64) identity.ID {
	return identity.NewValueID(value.Int(i))
}

func constant(v value.Value) Factory {
	return func(context.Context) (value.Value, error) { return v, nil }
}

func TestGetOrCreate_HitAndMiss(t *testing.T) {
	c := New(Config{})
	ctx := context.Background()

	h1, created := c.GetOrCreate(ctx, key(1), constant(value.Int(10)))
	if !created {
		t.Fatal("first lookup should create")
	}
	got, err := h1.Await(ctx)
	if err != nil || !value.Equal(got, value.Int(10)) {
		t.Fatalf("Await = (%s, %v)", got, err)
	}

	h2, created := c.GetOrCreate(ctx, key(1), constant(value.Int(99)))
	if created {
		t.Fatal("second lookup should hit")
	}
	got, err = h2.Await(ctx)
	if err != nil || !value.Equal(got, value.Int(10)) {
		t.Fatalf("hit returned (%s, %v), want the original value", got, err)
	}

	h1.Release()
	h2.Release()
}

func TestSingleFlight(t *testing.T) {
	c := New(Config{})
	ctx := context.Background()

	var invocations atomic.Int32
	gate := make(chan struct{})
	factory := func(context.Context) (value.Value, error) {
		invocations.Add(1)
		<-gate
		return value.Int(5), nil
	}

	const n = 100
	var wg sync.WaitGroup
	results := make([]value.Value, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, _ := c.GetOrCreate(ctx, key(7), factory)
			defer h.Release()
			results[i], errs[i] = h.Await(ctx)
		}(i)
	}

	// Let the callers pile up, then open the gate.
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	if got := invocations.Load(); got != 1 {
		t.Errorf("factory ran %d times, want 1", got)
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil || !value.Equal(results[i], value.Int(5)) {
			t.Fatalf("caller %d got (%s, %v)", i, results[i], errs[i])
		}
	}
}

func TestFailurePropagatesToAllWaiters(t *testing.T) {
	c := New(Config{})
	ctx := context.Background()
	boom := errors.New("boom")

	gate := make(chan struct{})
	factory := func(context.Context) (value.Value, error) {
		<-gate
		return value.Value{}, boom
	}

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, _ := c.GetOrCreate(ctx, key(3), factory)
			defer h.Release()
			_, errs[i] = h.Await(ctx)
		}(i)
	}
	time.Sleep(10 * time.Millisecond)
	close(gate)
	wg.Wait()

	for i := 0; i < n; i++ {
		if !errors.Is(errs[i], boom) {
			t.Errorf("waiter %d got %v, want boom", i, errs[i])
		}
	}
}

func TestFailedRecordIsRecomputed(t *testing.T) {
	c := New(Config{})
	ctx := context.Background()

	calls := 0
	factory := func(context.Context) (value.Value, error) {
		calls++
		if calls == 1 {
			return value.Value{}, errors.New("transient")
		}
		return value.Int(1), nil
	}

	h1, _ := c.GetOrCreate(ctx, key(9), factory)
	if _, err := h1.Await(ctx); err == nil {
		t.Fatal("first attempt should fail")
	}
	h1.Release()

	// No negative caching: the next lookup starts a fresh computation.
	h2, created := c.GetOrCreate(ctx, key(9), factory)
	if !created {
		t.Fatal("failed record should not satisfy a lookup")
	}
	got, err := h2.Await(ctx)
	if err != nil || !value.Equal(got, value.Int(1)) {
		t.Fatalf("retry got (%s, %v)", got, err)
	}
	h2.Release()
}

// sized produces blob values of n bytes, whose DeepSize (16 + n) is
// deterministic so eviction arithmetic is exact.
func sized(n int) Factory {
	return constant(value.BlobValue(value.NewBlob(make([]byte, n))))
}

func TestEviction_Order(t *testing.T) {
	// Values of DeepSize 17 (16-byte header + 1 data byte); a limit of
	// 3*17 keeps exactly the last three released records.
	c := New(Config{UnusedSizeLimit: 3 * 17})
	ctx := context.Background()

	for i := int64(0); i < 5; i++ {
		h, _ := c.GetOrCreate(ctx, key(i), sized(1))
		if _, err := h.Await(ctx); err != nil {
			t.Fatal(err)
		}
		h.Release()
	}

	snap := c.Snapshot()
	if len(snap.PendingEviction) != 3 {
		t.Fatalf("pending eviction has %d entries, want 3", len(snap.PendingEviction))
	}
	// The survivors are the three most recently released: keys 2, 3, 4.
	want := map[string]bool{key(2).String(): true, key(3).String(): true, key(4).String(): true}
	for _, e := range snap.PendingEviction {
		if !want[e.Key] {
			t.Errorf("unexpected survivor %s", e.Key)
		}
	}
	if snap.TotalEvictableSize != 3*17 {
		t.Errorf("TotalEvictableSize = %d, want %d", snap.TotalEvictableSize, 3*17)
	}
}

func TestEviction_NeverTouchesPinned(t *testing.T) {
	c := New(Config{UnusedSizeLimit: 1})
	ctx := context.Background()

	pinned, _ := c.GetOrCreate(ctx, key(1), sized(100))
	if _, err := pinned.Await(ctx); err != nil {
		t.Fatal(err)
	}

	// Overflow the unused budget repeatedly.
	for i := int64(2); i < 10; i++ {
		h, _ := c.GetOrCreate(ctx, key(i), sized(100))
		if _, err := h.Await(ctx); err != nil {
			t.Fatal(err)
		}
		h.Release()
	}

	snap := c.Snapshot()
	if len(snap.InUse) != 1 {
		t.Fatalf("in-use count = %d, want 1", len(snap.InUse))
	}
	if snap.InUse[0].Key != key(1).String() {
		t.Errorf("pinned record evicted; in-use is %s", snap.InUse[0].Key)
	}

	// The pinned record still answers without recomputation.
	h, created := c.GetOrCreate(ctx, key(1), sized(1))
	if created {
		t.Error("pinned record should still satisfy lookups")
	}
	h.Release()
	pinned.Release()
}

func TestClearUnused(t *testing.T) {
	c := New(Config{})
	ctx := context.Background()

	kept, _ := c.GetOrCreate(ctx, key(1), sized(1))
	if _, err := kept.Await(ctx); err != nil {
		t.Fatal(err)
	}
	for i := int64(2); i < 5; i++ {
		h, _ := c.GetOrCreate(ctx, key(i), sized(1))
		if _, err := h.Await(ctx); err != nil {
			t.Fatal(err)
		}
		h.Release()
	}

	c.ClearUnused()

	snap := c.Snapshot()
	if len(snap.PendingEviction) != 0 {
		t.Errorf("pending eviction has %d entries after ClearUnused", len(snap.PendingEviction))
	}
	if len(snap.InUse) != 1 {
		t.Errorf("in-use count = %d, want 1", len(snap.InUse))
	}
	if got := c.Info().EntryCount; got != 1 {
		t.Errorf("EntryCount = %d, want 1", got)
	}
	kept.Release()
}

func TestAwait_CancelledWaiter(t *testing.T) {
	c := New(Config{})

	gate := make(chan struct{})
	defer close(gate)
	h, _ := c.GetOrCreate(context.Background(), key(1), func(context.Context) (value.Value, error) {
		<-gate
		return value.Int(1), nil
	})
	defer h.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := h.Await(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Await = %v, want deadline exceeded", err)
	}
}

func TestHandle_UseAfterRelease(t *testing.T) {
	c := New(Config{})
	ctx := context.Background()
	h, _ := c.GetOrCreate(ctx, key(1), constant(value.Int(1)))
	if _, err := h.Await(ctx); err != nil {
		t.Fatal(err)
	}
	h.Release()
	h.Release() // idempotent
	if _, err := h.Await(ctx); !errors.Is(err, ErrReleased) {
		t.Errorf("Await after release = %v, want ErrReleased", err)
	}
}

func TestHashCollisionKeepsDistinctRecords(t *testing.T) {
	c := New(Config{})
	ctx := context.Background()

	a := collidingID{name: "a"}
	b := collidingID{name: "b"}

	ha, _ := c.GetOrCreate(ctx, a, constant(value.String("a")))
	hb, created := c.GetOrCreate(ctx, b, constant(value.String("b")))
	if !created {
		t.Fatal("colliding but unequal key should create a fresh record")
	}

	got, err := ha.Await(ctx)
	if err != nil || !value.Equal(got, value.String("a")) {
		t.Errorf("record a = (%s, %v)", got, err)
	}
	got, err = hb.Await(ctx)
	if err != nil || !value.Equal(got, value.String("b")) {
		t.Errorf("record b = (%s, %v)", got, err)
	}
	ha.Release()
	hb.Release()
}

// collidingID hashes identically for every instance but compares by name.
type collidingID struct{ name string }

func (c collidingID) Hash() uint64 { return 42 }
func (c collidingID) Equals(other identity.ID) bool {
	o, ok := other.(collidingID)
	return ok && c.name == o.name
}
func (c collidingID) String() string { return fmt.Sprintf("colliding(%s)", c.name) }
