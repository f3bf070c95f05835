package diskann

import "sort"

// boundedCandidates keeps the L closest distinct slots seen so far,
// ascending by distance with ties broken by slot id so the beam order
// is deterministic across runs over the same graph state.
type boundedCandidates struct {
	cap     int
	items   []Candidate
	present map[uint32]bool
}

func newBoundedCandidates(cap int) *boundedCandidates {
	return &boundedCandidates{cap: cap, present: make(map[uint32]bool, cap)}
}

func (b *boundedCandidates) insert(c Candidate) {
	if b.present[c.Slot] {
		return
	}
	idx := sort.Search(len(b.items), func(i int) bool {
		if b.items[i].Dist != c.Dist {
			return b.items[i].Dist > c.Dist
		}
		return b.items[i].Slot > c.Slot
	})
	b.items = append(b.items, Candidate{})
	copy(b.items[idx+1:], b.items[idx:])
	b.items[idx] = c
	b.present[c.Slot] = true
	if len(b.items) > b.cap {
		evicted := b.items[len(b.items)-1]
		b.items = b.items[:b.cap]
		delete(b.present, evicted.Slot)
	}
}

// popClosestUnvisited returns the closest slot currently held that is
// not yet marked visited, without removing it from the candidate set.
func (b *boundedCandidates) popClosestUnvisited(visited map[uint32]bool) (uint32, bool) {
	for _, c := range b.items {
		if !visited[c.Slot] {
			return c.Slot, true
		}
	}
	return 0, false
}

// greedySearch runs the bounded best-first traversal described for
// search and insertion alike: a beam of size at most beam, seeded
// from entry, expanded by following graph edges from the closest
// unvisited beam member until every beam member has been visited.
// The entry slots always seed the beam, whatever their labels. When
// filter is non-nil, a graph neighbor is inserted into the beam only
// if the label index reports it as matching, so apart from the entry
// slots only matching slots are ever expanded — a non-matching
// neighbor is a dead end for this traversal. The
// second return value is every slot visited, used verbatim as the
// candidate set for RobustPrune during insertion (not just the
// top-beam result).
func (idx *Index[T]) greedySearch(q []T, entry []uint32, beam int, filter *uint32) ([]Candidate, []uint32) {
	cands := newBoundedCandidates(beam)
	visited := make(map[uint32]bool)
	visitedList := make([]uint32, 0, beam)

	accepts := func(slot uint32) bool {
		return filter == nil || idx.labels == nil || idx.labels.Matches(slot, *filter)
	}

	for _, s := range entry {
		d := idx.distFn(q, idx.store.Read(s))
		cands.insert(Candidate{Slot: s, Dist: d})
	}

	for {
		p, ok := cands.popClosestUnvisited(visited)
		if !ok {
			break
		}
		visited[p] = true
		visitedList = append(visitedList, p)
		for _, n := range idx.graph.Neighbors(p) {
			if visited[n] || !accepts(n) {
				continue
			}
			d := idx.distFn(q, idx.store.Read(n))
			cands.insert(Candidate{Slot: n, Dist: d})
		}
	}

	return cands.items, visitedList
}

// greedySearchFiltered runs a preliminary beam of size Lf restricted
// to filter-matching slots to collect additional seed points, then
// runs the main beam from entry plus those seeds, still restricted to
// filter. Lf <= 0 skips the preliminary beam and is equivalent to
// greedySearch with a filter.
func (idx *Index[T]) greedySearchFiltered(q []T, entry []uint32, beam int, filter uint32, lf int) ([]Candidate, []uint32) {
	seedEntry := entry
	if lf > 0 {
		seedResults, _ := idx.greedySearch(q, entry, lf, &filter)
		seeds := make([]uint32, 0, len(entry)+len(seedResults))
		seeds = append(seeds, entry...)
		for _, c := range seedResults {
			seeds = append(seeds, c.Slot)
		}
		seedEntry = seeds
	}
	return idx.greedySearch(q, seedEntry, beam, &filter)
}
