package diskann

import (
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"
)

// ConsolidationStatus is the outcome of a single ConsolidateDeletes
// call. LockFail and InconsistentCount are not Go errors: the
// streaming controller treats both as structured, retriable outcomes
// rather than exceptional ones, per the driver's retry loop.
type ConsolidationStatus int

const (
	StatusSuccess ConsolidationStatus = iota
	StatusLockFail
	StatusInconsistentCount
)

// ConsolidationReport summarizes one consolidation pass.
type ConsolidationReport struct {
	Status        ConsolidationStatus
	ActivePoints  int
	MaxPoints     int
	EmptySlots    int
	SlotsReleased int
	DeleteSetSize int
	Elapsed       time.Duration
}

// ConsolidateDeletes drains the tombstone set: every live node with a
// tombstoned neighbor gets rewired around it using the union of its
// surviving neighbors and its tombstoned neighbors' neighbors, then
// (after verifying no tombstoned slot remains referenced anywhere)
// the tombstoned slots are unbound, dropped from the graph, and
// returned to the free set. Only one consolidation runs at a time;
// a concurrent call returns StatusLockFail immediately rather than
// blocking, so the caller can back off and retry instead of stalling
// a worker thread.
func (idx *Index[T]) ConsolidateDeletes(numThreads int) ConsolidationReport {
	if !idx.consolidateMu.TryLock() {
		return ConsolidationReport{Status: StatusLockFail}
	}
	defer idx.consolidateMu.Unlock()

	start := time.Now()
	deleteSet := idx.tomb.Snapshot()
	if deleteSet.IsEmpty() {
		return ConsolidationReport{
			Status:       StatusSuccess,
			ActivePoints: idx.Size(),
			MaxPoints:    idx.store.Capacity(),
			EmptySlots:   idx.store.FreeCount(),
			Elapsed:      time.Since(start),
		}
	}

	liveSlots := make([]uint32, 0)
	for _, slot := range idx.graph.AllSlots() {
		if !deleteSet.Contains(slot) {
			liveSlots = append(liveSlots, slot)
		}
	}

	g := new(errgroup.Group)
	if numThreads > 0 {
		g.SetLimit(numThreads)
	}
	for _, p := range liveSlots {
		p := p
		g.Go(func() error {
			idx.rewireNode(p, deleteSet)
			return nil
		})
	}
	_ = g.Wait()

	for _, p := range liveSlots {
		for _, n := range idx.graph.Neighbors(p) {
			if deleteSet.Contains(n) {
				return ConsolidationReport{
					Status:        StatusInconsistentCount,
					DeleteSetSize: int(deleteSet.GetCardinality()),
					Elapsed:       time.Since(start),
				}
			}
		}
	}

	deleteSlice := deleteSet.ToArray()
	for _, d := range deleteSlice {
		idx.tags.RemoveBySlot(d)
		if idx.labels != nil {
			idx.labels.Clear(d)
		}
		idx.graph.Remove(d)
		idx.store.Free(d)
	}
	idx.tomb.Remove(deleteSet)

	report := ConsolidationReport{
		Status:        StatusSuccess,
		ActivePoints:  idx.Size(),
		MaxPoints:     idx.store.Capacity(),
		EmptySlots:    idx.store.FreeCount(),
		SlotsReleased: len(deleteSlice),
		DeleteSetSize: len(deleteSlice),
		Elapsed:       time.Since(start),
	}
	if idx.metrics != nil {
		idx.metrics.RecordConsolidation(report.Elapsed, report.SlotsReleased)
	}
	return report
}

// rewireNode replaces p's tombstoned neighbors with survivors drawn
// from the union of p's live neighbors and its tombstoned neighbors'
// own live neighbors, then re-runs RobustPrune to cap back at R. A
// node with no tombstoned neighbor is left untouched.
func (idx *Index[T]) rewireNode(p uint32, deleteSet *roaring.Bitmap) {
	neighbors := idx.graph.Neighbors(p)
	hasTombstoned := false
	for _, n := range neighbors {
		if deleteSet.Contains(n) {
			hasTombstoned = true
			break
		}
	}
	if !hasTombstoned {
		return
	}

	union := make(map[uint32]bool, len(neighbors)*2)
	for _, n := range neighbors {
		if !deleteSet.Contains(n) {
			union[n] = true
		}
	}
	for _, n := range neighbors {
		if !deleteSet.Contains(n) {
			continue
		}
		for _, nn := range idx.graph.Neighbors(n) {
			if nn == p || deleteSet.Contains(nn) {
				continue
			}
			union[nn] = true
		}
	}

	pv := idx.store.Read(p)
	cands := make([]Candidate, 0, len(union))
	for u := range union {
		cands = append(cands, Candidate{Slot: u, Dist: idx.distFn(pv, idx.store.Read(u))})
	}

	pruned := RobustPrune(idx.store, idx.distFn, p, cands, idx.alpha, idx.R, idx.maxOcclusion, idx.saturateGraph)
	idx.graph.SetNeighbors(p, pruned)
}
