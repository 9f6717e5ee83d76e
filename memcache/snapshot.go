package memcache

import "github.com/mghro/open-cradle/identity"

// Entry describes one record in a snapshot.
type Entry struct {
	// Key is the record's fingerprint rendering.
	Key string

	// State is the record's state at snapshot time.
	State State

	// Size is the value's size in bytes; 0 unless Ready.
	Size int64

	// Epoch is the eviction epoch assigned when the record was last
	// released; 0 for a record that has never been released. Pinning a
	// record again does not reset it.
	Epoch uint64
}

// Snapshot captures the cache contents at one instant.
type Snapshot struct {
	// InUse lists records with at least one live handle.
	InUse []Entry

	// PendingEviction lists records with no live handle, in eviction
	// order (least-recently released first).
	PendingEviction []Entry

	// TotalEvictableSize is the byte total of the eviction list; Loading
	// records count zero.
	TotalEvictableSize int64
}

// Snapshot returns a consistent view of the cache contents.
func (c *Cache) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	var snap Snapshot
	for _, bucket := range c.buckets {
		for _, rec := range bucket {
			if rec.refcount > 0 {
				snap.InUse = append(snap.InUse, entryOf(rec.key, rec))
			}
		}
	}
	for e := c.eviction.Front(); e != nil; e = e.Next() {
		rec := e.Value.(*record)
		snap.PendingEviction = append(snap.PendingEviction, entryOf(rec.key, rec))
	}
	snap.TotalEvictableSize = c.unusedSize
	return snap
}

func entryOf(key identity.ID, rec *record) Entry {
	e := Entry{
		Key:   key.String(),
		State: State(rec.state.Load()),
		Epoch: rec.epoch,
	}
	if e.State == Ready {
		e.Size = rec.size
	}
	return e
}
