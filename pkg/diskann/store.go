package diskann

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// VectorStore owns the flat, slot-indexed vector buffer and the set of
// free slots. Slot ids are dense integers in [0, capacity); a slot is
// either free, or holds exactly one live or tombstoned vector — which
// of the two it is is tracked by Tombstones, not here. Reserve and
// Free are the only operations that touch the free set, and are
// covered by the single store lock. Write and Read index directly
// into the backing buffer without locking: a slot is only readable
// once its owner has finished Write and published the slot elsewhere
// (tag registry, graph), so distinct goroutines never touch the same
// slot's bytes concurrently.
type VectorStore[T Number] struct {
	mu         sync.Mutex
	alignedDim int
	data       []T
	free       *roaring.Bitmap
	capacity   int
}

// NewVectorStore allocates a store with room for capacity vectors of
// alignedDim elements each. alignedDim should already be rounded up
// to a multiple of 8 (see vectorfile.RoundUpDim8).
func NewVectorStore[T Number](capacity, alignedDim int) *VectorStore[T] {
	free := roaring.New()
	free.AddRange(0, uint64(capacity))
	return &VectorStore[T]{
		alignedDim: alignedDim,
		data:       make([]T, capacity*alignedDim),
		free:       free,
		capacity:   capacity,
	}
}

// Reserve removes and returns the lowest-numbered free slot.
func (s *VectorStore[T]) Reserve() (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.free.IsEmpty() {
		return 0, ErrCapacity
	}
	slot := s.free.Minimum()
	s.free.Remove(slot)
	return slot, nil
}

// Free returns a slot to the free set. Callers must ensure the slot is
// not referenced by the graph, tag registry or label index by the time
// this is called.
func (s *VectorStore[T]) Free(slot uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.free.Add(slot)
}

// Write copies v into slot's row, zero-padding any tail not covered
// by v. len(v) must be <= alignedDim.
func (s *VectorStore[T]) Write(slot uint32, v []T) {
	row := s.data[int(slot)*s.alignedDim : (int(slot)+1)*s.alignedDim]
	zeroFill(row)
	copy(row, v)
}

// Read returns the slot's row. The returned slice aliases the store's
// backing buffer and must not be retained past the slot's lifetime.
func (s *VectorStore[T]) Read(slot uint32) []T {
	return s.data[int(slot)*s.alignedDim : (int(slot)+1)*s.alignedDim]
}

// Capacity returns the total number of slots the store was built with.
func (s *VectorStore[T]) Capacity() int {
	return s.capacity
}

// AlignedDim returns the per-vector row width, including padding.
func (s *VectorStore[T]) AlignedDim() int {
	return s.alignedDim
}

// FreeCount returns the number of currently free slots.
func (s *VectorStore[T]) FreeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.free.GetCardinality())
}

func zeroFill[T Number](row []T) {
	var zero T
	for i := range row {
		row[i] = zero
	}
}
