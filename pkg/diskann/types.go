package diskann

import "github.com/go-diskann/diskann/internal/distance"

// Number is the set of element types an Index can be instantiated
// over. It mirrors the vector element types the file format and
// distance kernels support.
type Number = distance.Number

// Candidate is a slot paired with its distance from some reference
// point, used both as a search result and as the working set RobustPrune
// diversifies.
type Candidate struct {
	Slot uint32
	Dist float32
}

// SearchResult is a single nearest-neighbor hit returned to callers of
// Index.Search: the caller-visible tag, not the internal slot, plus
// its distance from the query.
type SearchResult struct {
	Tag      uint32
	Slot     uint32
	Distance float32
}
