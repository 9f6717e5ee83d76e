package memcache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"

	"github.com/mghro/open-cradle/identity"
	"github.com/mghro/open-cradle/observe"
	"github.com/mghro/open-cradle/value"
)

// DefaultUnusedSizeLimit bounds the total bytes of records with no live
// handle when no limit is configured.
const DefaultUnusedSizeLimit = int64(256 << 20)

// State is the lifecycle state of a cache record. Transitions are
// Loading -> Ready or Loading -> Failed; terminal states never mutate.
type State int32

const (
	// Loading: the result is somewhere in the process of being computed;
	// it will transition without further intervention.
	Loading State = iota
	// Ready: the value is available.
	Ready
	// Failed: the computation failed; the error is held for every waiter.
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "invalid"
	}
}

// Factory computes the value for a fresh record. It runs on its own
// goroutine, at most once per fingerprint at any moment.
type Factory func(ctx context.Context) (value.Value, error)

// Config configures a Cache.
type Config struct {
	// UnusedSizeLimit is the total byte budget for records with no live
	// handle. Default: DefaultUnusedSizeLimit.
	UnusedSizeLimit int64

	// Logger receives diagnostics; nil for none.
	Logger observe.Logger

	// Metrics receives hit/miss/eviction counts; nil for none.
	Metrics *observe.CacheMetrics
}

type record struct {
	key identity.ID

	state atomic.Int32
	done  chan struct{}
	val   value.Value
	err   error
	size  int64

	// The fields below are guarded by the cache mutex.
	refcount int
	elem     *list.Element // non-nil iff refcount == 0 (on the eviction list)
	epoch    uint64
	dropped  bool
	// unsized is true while the record sits on the eviction list with its
	// bytes not yet counted: it was released before the factory finished.
	unsized bool
}

// Cache is a concurrent, content-addressed store of computation results.
type Cache struct {
	mu         sync.Mutex
	buckets    map[uint64][]*record
	eviction   *list.List // of *record; head is least-recently released
	unusedSize int64
	limit      int64
	epoch      uint64

	logger  observe.Logger
	metrics *observe.CacheMetrics
}

// New creates a cache with the given config.
func New(cfg Config) *Cache {
	if cfg.UnusedSizeLimit <= 0 {
		cfg.UnusedSizeLimit = DefaultUnusedSizeLimit
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	return &Cache{
		buckets:  make(map[uint64][]*record),
		eviction: list.New(),
		limit:    cfg.UnusedSizeLimit,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

// GetOrCreate atomically returns a handle to an existing record for key or
// creates a fresh Loading record and runs factory to fill it. The second
// return is true iff a fresh record was created. A previously Failed record
// does not satisfy the lookup: it is dropped and recomputed (retry is the
// caller's decision, not the cache's).
func (c *Cache) GetOrCreate(ctx context.Context, key identity.ID, factory Factory) (*Handle, bool) {
	c.mu.Lock()

	bucket := c.buckets[key.Hash()]
	for _, rec := range bucket {
		if !rec.key.Equals(key) {
			// Hash collision; equality confirmation keeps the records
			// distinct.
			continue
		}
		if State(rec.state.Load()) == Failed {
			c.dropLocked(rec)
			break
		}
		c.pinLocked(rec)
		c.mu.Unlock()
		c.metrics.Hit(ctx)
		return &Handle{cache: c, rec: rec}, false
	}

	rec := &record{
		key:      key,
		done:     make(chan struct{}),
		refcount: 1,
	}
	c.buckets[key.Hash()] = append(c.buckets[key.Hash()], rec)
	c.mu.Unlock()
	c.metrics.Miss(ctx)

	go c.runFactory(ctx, rec, factory)

	return &Handle{cache: c, rec: rec}, true
}

func (c *Cache) runFactory(ctx context.Context, rec *record, factory Factory) {
	v, err := factory(ctx)

	if err != nil {
		rec.err = err
		rec.state.Store(int32(Failed))
	} else {
		rec.val = v
		rec.size = v.DeepSize()
		rec.state.Store(int32(Ready))
	}
	close(rec.done)

	// If every handle was released while the factory still ran, the
	// record sits on the eviction list with its bytes uncounted; account
	// for them now.
	c.mu.Lock()
	if rec.elem != nil && rec.unsized && !rec.dropped && State(rec.state.Load()) == Ready {
		rec.unsized = false
		c.unusedSize += rec.size
		c.sweepLocked()
	}
	c.mu.Unlock()
}

// pinLocked increments the refcount, removing the record from the eviction
// list if present.
func (c *Cache) pinLocked(rec *record) {
	rec.refcount++
	if rec.elem != nil {
		c.eviction.Remove(rec.elem)
		rec.elem = nil
		if rec.unsized {
			rec.unsized = false
		} else if State(rec.state.Load()) == Ready {
			c.unusedSize -= rec.size
		}
	}
}

// releaseLocked decrements the refcount; on zero the record joins the tail
// of the eviction list.
func (c *Cache) releaseLocked(rec *record) {
	rec.refcount--
	if rec.refcount > 0 || rec.dropped {
		return
	}
	c.epoch++
	rec.epoch = c.epoch
	rec.elem = c.eviction.PushBack(rec)
	if State(rec.state.Load()) == Loading {
		// Counts zero bytes until the factory finishes.
		rec.unsized = true
	} else if State(rec.state.Load()) == Ready {
		c.unusedSize += rec.size
	}
	c.sweepLocked()
}

// sweepLocked evicts least-recently released Ready records until the
// unused-byte budget holds. Loading records count zero bytes and are left
// in place; records with live handles are never touched.
func (c *Cache) sweepLocked() {
	evicted := int64(0)
	for c.unusedSize > c.limit {
		var victim *record
		for e := c.eviction.Front(); e != nil; e = e.Next() {
			rec := e.Value.(*record)
			if !rec.unsized && State(rec.state.Load()) == Ready {
				victim = rec
				break
			}
		}
		if victim == nil {
			break
		}
		c.dropLocked(victim)
		evicted++
	}
	if evicted > 0 {
		c.metrics.Eviction(context.Background(), evicted)
		c.logger.Debug(context.Background(), "memcache: evicted records",
			observe.F("count", evicted), observe.F("unused_bytes", c.unusedSize))
	}
}

// dropLocked removes a record from the bucket map and the eviction list.
func (c *Cache) dropLocked(rec *record) {
	if rec.dropped {
		return
	}
	rec.dropped = true
	if rec.elem != nil {
		c.eviction.Remove(rec.elem)
		rec.elem = nil
		if !rec.unsized && State(rec.state.Load()) == Ready {
			c.unusedSize -= rec.size
		}
	}
	hash := rec.key.Hash()
	bucket := c.buckets[hash]
	for i, r := range bucket {
		if r == rec {
			c.buckets[hash] = append(bucket[:i:i], bucket[i+1:]...)
			break
		}
	}
	if len(c.buckets[hash]) == 0 {
		delete(c.buckets, hash)
	}
}

// ClearUnused drops every record with no live handle.
func (c *Cache) ClearUnused() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.eviction.Len() > 0 {
		c.dropLocked(c.eviction.Front().Value.(*record))
	}
}

// Info summarizes the cache contents.
type Info struct {
	EntryCount int
}

// Info returns summary information.
func (c *Cache) Info() Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, bucket := range c.buckets {
		n += len(bucket)
	}
	return Info{EntryCount: n}
}

// UnusedSize returns the current byte total of records on the eviction
// list, and the configured limit.
func (c *Cache) UnusedSize() (current, limit int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unusedSize, c.limit
}

// Handle pins a cache record against eviction.
type Handle struct {
	cache    *Cache
	rec      *record
	released atomic.Bool
}

// Await suspends until the record leaves Loading, returning the value on
// Ready and the stored failure on Failed. Cancelling ctx abandons the wait
// without affecting the record.
func (h *Handle) Await(ctx context.Context) (value.Value, error) {
	if h.released.Load() {
		return value.Value{}, ErrReleased
	}
	select {
	case <-ctx.Done():
		return value.Value{}, ctx.Err()
	case <-h.rec.done:
	}
	if State(h.rec.state.Load()) == Failed {
		return value.Value{}, h.rec.err
	}
	return h.rec.val, nil
}

// State returns the record's current state.
func (h *Handle) State() State {
	return State(h.rec.state.Load())
}

// Release unpins the record. Idempotent.
func (h *Handle) Release() {
	if h.released.Swap(true) {
		return
	}
	h.cache.mu.Lock()
	h.cache.releaseLocked(h.rec)
	h.cache.mu.Unlock()
}
