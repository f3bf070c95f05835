package diskann

import "testing"

func TestTagRegistryRoundTrip(t *testing.T) {
	r := NewTagRegistry()
	if err := r.Put(5, 10); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := r.Put(5, 11); err != ErrDuplicateTag {
		t.Fatalf("second Put err = %v, want ErrDuplicateTag", err)
	}
	slot, ok := r.Get(5)
	if !ok || slot != 10 {
		t.Fatalf("Get(5) = (%d, %v), want (10, true)", slot, ok)
	}
	tag, ok := r.TagOf(10)
	if !ok || tag != 5 {
		t.Fatalf("TagOf(10) = (%d, %v), want (5, true)", tag, ok)
	}
	removed, ok := r.RemoveBySlot(10)
	if !ok || removed != 5 {
		t.Fatalf("RemoveBySlot(10) = (%d, %v), want (5, true)", removed, ok)
	}
	if _, ok := r.Get(5); ok {
		t.Fatal("tag still bound after RemoveBySlot")
	}
}

func TestTombstonesSnapshotIsIndependent(t *testing.T) {
	tomb := NewTombstones()
	tomb.Add(1)
	tomb.Add(2)
	snap := tomb.Snapshot()
	tomb.Add(3)
	if snap.Contains(3) {
		t.Fatal("snapshot observed a tombstone added after it was taken")
	}
	if !snap.Contains(1) || !snap.Contains(2) {
		t.Fatal("snapshot missing tombstones present when it was taken")
	}
}

func TestLabelIndexUniversalLabelMatchesEverything(t *testing.T) {
	l := NewLabelIndex()
	l.SetUniversalLabel(0)
	l.Set(1, []uint32{0})
	l.Set(2, []uint32{9})

	if !l.Matches(1, 9) {
		t.Fatal("slot carrying the universal label should match any filter")
	}
	if !l.Matches(2, 9) {
		t.Fatal("slot 2 carries label 9 directly")
	}
	if l.Matches(2, 42) {
		t.Fatal("slot 2 should not match an unrelated label")
	}
}

func TestProximityGraphAppendBackEdgeDedupes(t *testing.T) {
	g := NewProximityGraph(4)
	g.SetNeighbors(1, []uint32{2})
	out := g.AppendBackEdge(1, 2)
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1 after re-appending an existing edge", len(out))
	}
	out = g.AppendBackEdge(1, 3)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
}

func TestProximityGraphRemoveDropsNode(t *testing.T) {
	g := NewProximityGraph(4)
	g.SetNeighbors(1, []uint32{2, 3})
	g.Remove(1)
	if out := g.Neighbors(1); out != nil {
		t.Fatalf("Neighbors after Remove = %v, want nil", out)
	}
}

func TestBoundedCandidatesEvictsFarthest(t *testing.T) {
	b := newBoundedCandidates(2)
	b.insert(Candidate{Slot: 1, Dist: 5})
	b.insert(Candidate{Slot: 2, Dist: 1})
	b.insert(Candidate{Slot: 3, Dist: 3})

	if len(b.items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(b.items))
	}
	if b.items[0].Slot != 2 || b.items[1].Slot != 3 {
		t.Fatalf("items = %v, want slots [2, 3] ascending by distance", b.items)
	}
}
