package vector

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hubenschmidt/go-bookmatch/core"
)

// Entry is one indexed book.
type Entry struct {
	ID     string
	Vector FeatureVector
}

// Neighbor is a query hit.
type Neighbor struct {
	ID       string  `json:"id"`
	Distance float64 `json:"distance"`
}

// Index is an immutable snapshot of feature vectors answering exact k-NN
// queries by brute force.
type Index struct {
	ids     []string
	vectors []FeatureVector
	weights Weights
	version string
	builtAt time.Time
}

// IndexOption configures NewIndex.
type IndexOption func(*Index)

// WithWeights sets the per-dimension distance weights.
func WithWeights(w Weights) IndexOption {
	return func(ix *Index) {
		ix.weights = w
	}
}

// NewIndex copies entries into a new index. Their order is the tie-break
// order of every query.
func NewIndex(entries []Entry, opts ...IndexOption) *Index {
	ix := &Index{
		ids:     make([]string, len(entries)),
		vectors: make([]FeatureVector, len(entries)),
		weights: UnitWeights,
		version: uuid.NewString(),
		builtAt: time.Now(),
	}
	for i, e := range entries {
		ix.ids[i] = e.ID
		ix.vectors[i] = e.Vector
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Query returns up to k neighbors of v in ascending distance. Equal
// distances keep build order. k beyond the population returns everything.
func (ix *Index) Query(v FeatureVector, k int) ([]Neighbor, error) {
	if ix == nil || len(ix.ids) == 0 {
		return nil, fmt.Errorf("query index: %w: index is empty", core.ErrInvalidQuery)
	}
	if k <= 0 {
		return nil, fmt.Errorf("query index: %w: k must be positive, got %d", core.ErrInvalidQuery, k)
	}

	hits := make([]Neighbor, len(ix.ids))
	for i, vec := range ix.vectors {
		hits[i] = Neighbor{ID: ix.ids[i], Distance: squaredDistance(v, vec, ix.weights)}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	for i := range hits {
		hits[i].Distance = math.Sqrt(hits[i].Distance)
	}
	return hits, nil
}

func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.ids)
}

// Version identifies the snapshot.
func (ix *Index) Version() string {
	if ix == nil {
		return ""
	}
	return ix.version
}

func (ix *Index) BuiltAt() time.Time {
	if ix == nil {
		return time.Time{}
	}
	return ix.builtAt
}

func (ix *Index) Weights() Weights {
	return ix.weights
}
