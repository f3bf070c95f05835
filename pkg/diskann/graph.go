package diskann

import "sync"

// ProximityGraph is the bounded out-degree neighbor graph over slot
// ids. The map lock only guards creation/removal of a node's entry;
// once a node exists, reads and writes to its neighbor list go
// through that node's own lock, so unrelated slots never contend.
type ProximityGraph struct {
	R     int
	mu    sync.RWMutex
	nodes map[uint32]*graphNode
}

// NewProximityGraph returns an empty graph with max degree R.
func NewProximityGraph(R int) *ProximityGraph {
	return &ProximityGraph{R: R, nodes: make(map[uint32]*graphNode)}
}

func (g *ProximityGraph) ensure(slot uint32) *graphNode {
	g.mu.RLock()
	n, ok := g.nodes[slot]
	g.mu.RUnlock()
	if ok {
		return n
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if n, ok := g.nodes[slot]; ok {
		return n
	}
	n = &graphNode{}
	g.nodes[slot] = n
	return n
}

// Neighbors returns a snapshot copy of slot's current neighbor list.
// Returns nil if slot has no node yet.
func (g *ProximityGraph) Neighbors(slot uint32) []uint32 {
	g.mu.RLock()
	n, ok := g.nodes[slot]
	g.mu.RUnlock()
	if !ok {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]uint32, len(n.neighbors))
	copy(out, n.neighbors)
	return out
}

// SetNeighbors atomically replaces slot's neighbor list, creating the
// node if it does not yet exist. This is how a new point becomes
// visible to search: before SetNeighbors is called for the first
// time, nothing else can reach the slot through the graph.
func (g *ProximityGraph) SetNeighbors(slot uint32, list []uint32) {
	n := g.ensure(slot)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.neighbors = append(n.neighbors[:0:0], list...)
}

// AppendBackEdge adds target to slot's neighbor list if not already
// present, and returns a snapshot of the list afterward. The caller
// is responsible for checking whether the result exceeds R and
// running a forced RobustPrune if so; the window between this call
// returning an oversize list and the caller's SetNeighbors landing is
// where degree can transiently exceed R under concurrent inserts.
func (g *ProximityGraph) AppendBackEdge(slot, target uint32) []uint32 {
	n := g.ensure(slot)
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, x := range n.neighbors {
		if x == target {
			out := make([]uint32, len(n.neighbors))
			copy(out, n.neighbors)
			return out
		}
	}
	n.neighbors = append(n.neighbors, target)
	out := make([]uint32, len(n.neighbors))
	copy(out, n.neighbors)
	return out
}

// Remove deletes slot's node entirely, called once the slot has been
// reclaimed by consolidation.
func (g *ProximityGraph) Remove(slot uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.nodes, slot)
}

// AllSlots returns a snapshot of every slot currently known to the
// graph, live or tombstoned.
func (g *ProximityGraph) AllSlots() []uint32 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]uint32, 0, len(g.nodes))
	for slot := range g.nodes {
		out = append(out, slot)
	}
	return out
}
