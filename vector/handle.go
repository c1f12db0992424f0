package vector

import "sync/atomic"

// Handle publishes the live Index. Readers never block; a rebuild swaps in a
// complete new snapshot.
type Handle struct {
	p atomic.Pointer[Index]
}

// Load returns the current index, nil before the first Swap.
func (h *Handle) Load() *Index {
	return h.p.Load()
}

// Swap publishes ix and returns the index it replaced.
func (h *Handle) Swap(ix *Index) *Index {
	return h.p.Swap(ix)
}

// Query runs against whatever index is live at call time.
func (h *Handle) Query(v FeatureVector, k int) ([]Neighbor, error) {
	return h.Load().Query(v, k)
}
