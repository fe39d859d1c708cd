// Package retrieval turns a query vector into a ranked, deduplicated
// candidate set drawn from the vector index.
package retrieval

import (
	"fmt"

	"github.com/kailas-cloud/assessrec/internal/domain"
	"github.com/kailas-cloud/assessrec/internal/domain/candidate"
)

// Over-fetch defaults.
const (
	DefaultOverFetchFactor = 3
	DefaultOverFetchFloor  = 10
)

// Options tunes candidate set sizing.
type Options struct {
	OverFetchFactor int
	OverFetchFloor  int
}

// Service retrieves candidates. Index and catalog are immutable, so the
// service is safe for concurrent use.
type Service struct {
	index   Index
	catalog Catalog
	opts    Options
	// число лишних слотов, которые схлопнутся при дедупликации
	redundant int
}

// New creates a retrieval service over a loaded index and catalog.
func New(index Index, catalog Catalog, opts Options) *Service {
	if opts.OverFetchFactor <= 0 {
		opts.OverFetchFactor = DefaultOverFetchFactor
	}
	if opts.OverFetchFloor < 0 {
		opts.OverFetchFloor = 0
	}
	return &Service{
		index:     index,
		catalog:   catalog,
		opts:      opts,
		redundant: index.Len() - index.DistinctIDs(),
	}
}

// OverFetch returns how many candidates to retrieve for maxResults:
// max(maxResults*factor, floor), never below maxResults.
func (s *Service) OverFetch(maxResults int) int {
	return max(maxResults*s.opts.OverFetchFactor, s.opts.OverFetchFloor, maxResults)
}

// Retrieve returns up to k distinct candidates ordered by descending
// similarity, ties by ascending id, ranked 1..n.
func (s *Service) Retrieve(query []float32, k int) ([]candidate.Match, error) {
	if k <= 0 {
		return nil, nil
	}
	if dim := s.index.Dimensions(); len(query) != dim {
		return nil, fmt.Errorf("%w: %w: query has %d dimensions, index has %d",
			domain.ErrRetrievalUnavailable, domain.ErrVectorDimMismatch, len(query), dim)
	}

	hits, err := s.index.Search(query, k+s.redundant)
	if err != nil {
		return nil, fmt.Errorf("%w: search index: %w", domain.ErrRetrievalUnavailable, err)
	}

	best := make(map[string]int, len(hits))
	matches := make([]candidate.Match, 0, len(hits))
	for _, h := range hits {
		if !s.catalog.Contains(h.ID) {
			continue
		}
		m := candidate.New(h.ID, h.Score)
		if i, seen := best[h.ID]; seen {
			if candidate.Before(m, matches[i]) {
				matches[i] = m
			}
			continue
		}
		best[h.ID] = len(matches)
		matches = append(matches, m)
	}

	return candidate.Top(candidate.Rank(matches), k), nil
}
