package diskann

// InsertPoint adds a new point under tag, with optional labels if the
// index has labels enabled. It follows the insertion protocol: reserve
// a slot, bind the tag, write the vector, run a greedy search from the
// frozen starts to collect a candidate neighborhood, RobustPrune it
// down to the new node's own neighbor list, publish that list (making
// the slot reachable for the first time), then walk the chosen
// neighbors adding a back-edge at each and forcing a prune on any that
// overflow R.
func (idx *Index[T]) InsertPoint(vector []T, tag uint32, labels []uint32) error {
	if len(vector) != idx.dim {
		return ErrDimensionMismatch
	}

	slot, err := idx.store.Reserve()
	if err != nil {
		return err
	}
	if err := idx.tags.Put(tag, slot); err != nil {
		idx.store.Free(slot)
		return err
	}
	if idx.labels != nil && len(labels) > 0 {
		idx.labels.Set(slot, labels)
	}
	idx.store.Write(slot, vector)

	var results []Candidate
	var visited []uint32
	if idx.labels != nil && len(labels) > 0 && idx.filteredLBuild > 0 {
		results, visited = idx.greedySearchFiltered(idx.store.Read(slot), idx.frozen, idx.L, labels[0], idx.filteredLBuild)
	} else {
		results, visited = idx.greedySearch(idx.store.Read(slot), idx.frozen, idx.L, nil)
	}
	_ = results

	pv := idx.store.Read(slot)
	cands := make([]Candidate, 0, len(visited))
	for _, v := range visited {
		if v == slot {
			continue
		}
		d := idx.distFn(pv, idx.store.Read(v))
		cands = append(cands, Candidate{Slot: v, Dist: d})
	}

	neighbors := RobustPrune(idx.store, idx.distFn, slot, cands, idx.alpha, idx.R, idx.maxOcclusion, idx.saturateGraph)
	idx.graph.SetNeighbors(slot, neighbors)

	for _, t := range neighbors {
		snapshot := idx.graph.AppendBackEdge(t, slot)
		if len(snapshot) <= idx.R {
			continue
		}
		tv := idx.store.Read(t)
		reCands := make([]Candidate, 0, len(snapshot))
		for _, n := range snapshot {
			reCands = append(reCands, Candidate{Slot: n, Dist: idx.distFn(tv, idx.store.Read(n))})
		}
		repruned := RobustPrune(idx.store, idx.distFn, t, reCands, idx.alpha, idx.R, idx.maxOcclusion, idx.saturateGraph)
		idx.graph.SetNeighbors(t, repruned)
	}

	if idx.metrics != nil {
		idx.metrics.RecordInsert()
	}
	return nil
}
