// Package diskann implements a concurrent, in-memory, streaming
// approximate nearest-neighbor graph index: bounded out-degree
// proximity graph, greedy best-first search, RobustPrune
// alpha-diversification, frozen start points, lazy deletion via
// tombstones, and batch consolidation that reclaims deleted slots.
//
// The index is parameterized over its vector element type (int8,
// uint8 or float32) and only ever computes squared L2 distance
// internally; maximum-inner-product search is supported by having the
// caller apply the MIPS-to-L2 transform (internal/distance.Augment*)
// before vectors ever reach the index.
package diskann

import (
	"math/rand"
	"sync"

	"github.com/go-diskann/diskann/internal/distance"
	"github.com/go-diskann/diskann/pkg/observability"
)

// Config configures a new Index.
type Config struct {
	// Dim is the vector dimension the index was built for, before
	// alignment padding.
	Dim int

	// Capacity is the total number of slots to reserve, including
	// frozen start points. The streaming controller sizes this as
	// active_window plus a few consolidate_interval's worth of
	// headroom.
	Capacity int

	// R is the maximum out-degree of any node.
	R int

	// L is the build-time search beam width.
	L int

	// Alpha is the RobustPrune diversification factor; must be >= 1.
	Alpha float64

	// MaxOcclusion caps how many of RobustPrune's candidates are even
	// considered, closest-first. Zero means no cap.
	MaxOcclusion int

	// SaturateGraph pads a pruned neighbor list back up to R with the
	// closest rejected candidates when diversification alone would
	// leave it smaller.
	SaturateGraph bool

	// NumStartPoints is the number of frozen entry points to place.
	NumStartPoints int

	// StartPointNorm is the L2 norm frozen start vectors are scaled to.
	StartPointNorm float64

	// EnableLabels turns on per-point label filtering. When enabled,
	// LazyDelete is unsupported (ErrLabelsUnsupportedForDelete).
	EnableLabels bool

	// UniversalLabel, if HasUniversalLabel is set, matches every
	// filter in addition to its own label id.
	UniversalLabel    uint32
	HasUniversalLabel bool

	// FilteredLBuild is the secondary beam width used to seed a
	// label-filtered insertion or search. Zero disables it.
	FilteredLBuild int

	DistanceKind distance.Kind

	Logger  *observability.Logger
	Metrics *observability.Metrics

	// Rand seeds frozen start point placement. Nil uses a
	// fixed-seed source.
	Rand *rand.Rand
}

// Index is a concurrent, in-memory streaming ANN graph index over
// vectors of element type T.
type Index[T Number] struct {
	dim        int
	alignedDim int
	R          int
	L          int
	alpha      float64

	maxOcclusion  int
	saturateGraph bool

	filteredLBuild int

	distFn distance.Func[T]

	store *VectorStore[T]
	tags  *TagRegistry
	graph *ProximityGraph
	tomb  *Tombstones

	labels *LabelIndex

	frozen    []uint32
	frozenSet map[uint32]bool

	consolidateMu sync.Mutex

	logger  *observability.Logger
	metrics *observability.Metrics
}

// New builds an Index with no points beyond its frozen start points.
func New[T Number](cfg Config) (*Index[T], error) {
	alignedDim := roundUpDim8(cfg.Dim)

	idx := &Index[T]{
		dim:            cfg.Dim,
		alignedDim:     alignedDim,
		R:              cfg.R,
		L:              cfg.L,
		alpha:          cfg.Alpha,
		maxOcclusion:   cfg.MaxOcclusion,
		saturateGraph:  cfg.SaturateGraph,
		filteredLBuild: cfg.FilteredLBuild,
		distFn:         distance.For[T](cfg.DistanceKind),
		store:          NewVectorStore[T](cfg.Capacity, alignedDim),
		tags:           NewTagRegistry(),
		graph:          NewProximityGraph(cfg.R),
		tomb:           NewTombstones(),
		frozenSet:      make(map[uint32]bool),
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
	}

	if cfg.EnableLabels {
		idx.labels = NewLabelIndex()
		if cfg.HasUniversalLabel {
			idx.labels.SetUniversalLabel(cfg.UniversalLabel)
		}
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	numStart := cfg.NumStartPoints
	if numStart <= 0 {
		numStart = 1
	}
	if err := idx.initFrozenStarts(numStart, cfg.StartPointNorm, rng); err != nil {
		return nil, err
	}

	return idx, nil
}

func roundUpDim8(dim int) int {
	return (dim + 7) &^ 7
}

// Search runs a k-nearest-neighbor query. If filter is non-nil and
// the index has labels enabled, only points carrying that label (or
// the universal label) are eligible results. Frozen start points and
// tombstoned slots are never returned.
func (idx *Index[T]) Search(query []T, k int, filter *uint32) ([]SearchResult, error) {
	if len(query) != idx.dim {
		return nil, ErrDimensionMismatch
	}
	padded := make([]T, idx.alignedDim)
	copy(padded, query)

	var results []Candidate
	if filter != nil && idx.labels != nil {
		results, _ = idx.greedySearchFiltered(padded, idx.frozen, idx.L, *filter, idx.filteredLBuild)
	} else {
		results, _ = idx.greedySearch(padded, idx.frozen, idx.L, nil)
	}

	tombSnap := idx.tomb.Snapshot()
	out := make([]SearchResult, 0, k)
	for _, c := range results {
		if len(out) == k {
			break
		}
		if idx.frozenSet[c.Slot] || tombSnap.Contains(c.Slot) {
			continue
		}
		tag, ok := idx.tags.TagOf(c.Slot)
		if !ok {
			continue
		}
		out = append(out, SearchResult{Tag: tag, Slot: c.Slot, Distance: c.Dist})
	}
	return out, nil
}

// Size returns the current number of live (non-tombstoned,
// non-frozen) points.
func (idx *Index[T]) Size() int {
	nonFree := idx.store.Capacity() - idx.store.FreeCount()
	return nonFree - idx.tomb.Len() - len(idx.frozen)
}

// Capacity returns the total slot capacity the index was built with.
func (idx *Index[T]) Capacity() int {
	return idx.store.Capacity()
}

// TombstoneCount returns the number of slots marked deleted but not
// yet reclaimed by consolidation.
func (idx *Index[T]) TombstoneCount() int {
	return idx.tomb.Len()
}

// FreeSlotCount returns the number of unreserved slots.
func (idx *Index[T]) FreeSlotCount() int {
	return idx.store.FreeCount()
}

// Lookup returns the slot bound to tag, for tests and diagnostics.
func (idx *Index[T]) Lookup(tag uint32) (uint32, bool) {
	return idx.tags.Get(tag)
}
