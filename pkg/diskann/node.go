package diskann

import "sync"

// graphNode holds one slot's neighbor list behind its own lock, so a
// search reading one node's neighbors never blocks a concurrent
// insert mutating a different node. Grounded on the per-node mutex
// used for HNSW's neighbor lists, applied here to a flat proximity
// graph instead of layered ones.
type graphNode struct {
	mu        sync.Mutex
	neighbors []uint32
}
