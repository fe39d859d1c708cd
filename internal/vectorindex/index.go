// Package vectorindex holds the pre-built embedding index: one vector per
// catalog record, searched by brute-force nearest neighbour in memory.
package vectorindex

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/kailas-cloud/assessrec/internal/domain"
)

// Hit is one scored index slot.
type Hit struct {
	Slot  int
	ID    string
	Score float64
}

// Index is immutable after construction and safe for concurrent reads.
type Index struct {
	dim     int
	metric  Metric
	model   string
	ids     []string
	vectors [][]float32
	norms   []float64
}

// New validates and builds an index. Slot i maps to ids[i].
func New(dim int, metric Metric, model string, ids []string, vectors [][]float32) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dim)
	}
	metric, err := ParseMetric(string(metric))
	if err != nil {
		return nil, err
	}
	if len(ids) != len(vectors) {
		return nil, fmt.Errorf("ids/vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}

	ix := &Index{
		dim:     dim,
		metric:  metric,
		model:   model,
		ids:     append([]string(nil), ids...),
		vectors: make([][]float32, len(vectors)),
		norms:   make([]float64, len(vectors)),
	}
	for i, v := range vectors {
		if ids[i] == "" {
			return nil, fmt.Errorf("slot %d: empty record id", i)
		}
		if len(v) != dim {
			return nil, fmt.Errorf("slot %d: %w: got %d, want %d", i, domain.ErrVectorDimMismatch, len(v), dim)
		}
		ix.vectors[i] = append([]float32(nil), v...)
		ix.norms[i] = norm(v)
	}
	return ix, nil
}

// Dimensions returns the vector dimensionality.
func (ix *Index) Dimensions() int { return ix.dim }

// Metric returns the similarity metric.
func (ix *Index) Metric() Metric { return ix.metric }

// Model returns the embedding model the vectors were produced with.
func (ix *Index) Model() string { return ix.model }

// Len returns the number of slots.
func (ix *Index) Len() int { return len(ix.ids) }

// IDs returns the slot to record id mapping in slot order.
func (ix *Index) IDs() []string { return append([]string(nil), ix.ids...) }

// Vector returns a copy of the vector in slot.
func (ix *Index) Vector(slot int) []float32 {
	return append([]float32(nil), ix.vectors[slot]...)
}

// DistinctIDs counts unique record ids across slots.
func (ix *Index) DistinctIDs() int {
	seen := make(map[string]struct{}, len(ix.ids))
	for _, id := range ix.ids {
		seen[id] = struct{}{}
	}
	return len(seen)
}

// ErrEmptyQuery is returned for a nil query vector.
var ErrEmptyQuery = errors.New("empty query vector")

// Search scores every slot against query and returns the k best, ordered by
// descending score, then ascending record id, then slot.
func (ix *Index) Search(query []float32, k int) ([]Hit, error) {
	if len(query) == 0 {
		return nil, ErrEmptyQuery
	}
	if len(query) != ix.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrVectorDimMismatch, len(query), ix.dim)
	}
	if k <= 0 {
		return nil, nil
	}

	qNorm := norm(query)
	hits := make([]Hit, len(ix.vectors))
	for i, v := range ix.vectors {
		var score float64
		switch ix.metric {
		case MetricL2:
			score = l2Similarity(query, v)
		default:
			score = cosine(query, v, qNorm, ix.norms[i])
		}
		hits[i] = Hit{Slot: i, ID: ix.ids[i], Score: score}
	}

	slices.SortFunc(hits, func(a, b Hit) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(a.ID, b.ID); c != 0 {
			return c
		}
		return cmp.Compare(a.Slot, b.Slot)
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}
