package diskann

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// Tombstones is the set of slots marked deleted but not yet reclaimed.
// Searchers consult it to skip tombstoned slots as result candidates
// while still traversing through them as graph hops; Consolidate
// drains it in batches.
type Tombstones struct {
	mu  sync.RWMutex
	set *roaring.Bitmap
}

// NewTombstones returns an empty tombstone set.
func NewTombstones() *Tombstones {
	return &Tombstones{set: roaring.New()}
}

// Add marks slot deleted. Idempotent.
func (t *Tombstones) Add(slot uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.set.Add(slot)
}

// Contains reports whether slot is currently tombstoned.
func (t *Tombstones) Contains(slot uint32) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.set.Contains(slot)
}

// Snapshot returns a point-in-time clone of the tombstone set, safe to
// read without holding any lock.
func (t *Tombstones) Snapshot() *roaring.Bitmap {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.set.Clone()
}

// Remove clears every slot in drained from the tombstone set, called
// once Consolidate has freed those slots.
func (t *Tombstones) Remove(drained *roaring.Bitmap) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.set.AndNot(drained)
}

// Len returns the number of currently tombstoned slots.
func (t *Tombstones) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return int(t.set.GetCardinality())
}
