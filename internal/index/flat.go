package index

import (
	"fmt"
	"sort"

	"github.com/xxxsen/newsdigest/internal/model"
)

// flatIndex is an exact brute-force index over fixed-dimension vectors with
// a parallel snapshot list. It is immutable after construction; consistency
// comes from swapping whole instances, never patching one in place.
type flatIndex struct {
	dim       int
	vectors   [][]float32
	snapshots []model.ArticleSnapshot
}

func newFlatIndex(dim int, vectors [][]float32, snapshots []model.ArticleSnapshot) (*flatIndex, error) {
	// dim 0 is only legal for the empty index an ingestion cycle over an
	// empty store publishes.
	if dim <= 0 && len(vectors) > 0 {
		return nil, fmt.Errorf("index dimension must be positive, got %d", dim)
	}
	if len(vectors) != len(snapshots) {
		return nil, fmt.Errorf("vector count %d != snapshot count %d", len(vectors), len(snapshots))
	}
	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", i, len(vec), dim)
		}
	}
	return &flatIndex{dim: dim, vectors: vectors, snapshots: snapshots}, nil
}

func (ix *flatIndex) size() int {
	return len(ix.vectors)
}

// search returns the k nearest entries by squared L2 distance, ascending.
// Squared distance ranks identically to true L2 and is what flat vector
// indexes conventionally report; the derived score is 1/(1+distance).
func (ix *flatIndex) search(query []float32, k int) ([]model.RetrievalResult, error) {
	if k <= 0 || len(ix.vectors) == 0 {
		return nil, nil
	}
	if len(query) != ix.dim {
		return nil, fmt.Errorf("query dimension %d, index dimension %d", len(query), ix.dim)
	}
	results := make([]model.RetrievalResult, 0, len(ix.vectors))
	for i, vec := range ix.vectors {
		dist := l2Squared(query, vec)
		results = append(results, model.RetrievalResult{
			Article:  ix.snapshots[i],
			Distance: dist,
			Score:    1 / (1 + dist),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

func l2Squared(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(sum)
}
