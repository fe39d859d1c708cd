// Package recommendation defines the request and response of the recommender.
package recommendation

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/assessrec/internal/domain"
)

// Request limits.
const (
	// MaxQueryLength is the maximum accepted query length in bytes.
	MaxQueryLength = 8192
	// DefaultMaxResults matches the fixed result count of the public API.
	DefaultMaxResults = 10
	// DefaultCeiling is the default upper bound for max_results.
	DefaultCeiling = 10
)

// Request is a validated recommendation query.
type Request struct {
	query      string
	maxResults int
}

// NewRequest validates the query and max_results against ceiling.
// Out-of-range values are rejected, never clamped.
func NewRequest(query string, maxResults, ceiling int) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d bytes)", domain.ErrInvalidRequest, MaxQueryLength)
	}
	if maxResults <= 0 {
		return Request{}, fmt.Errorf("%w: max_results must be positive, got %d", domain.ErrInvalidRequest, maxResults)
	}
	if ceiling > 0 && maxResults > ceiling {
		return Request{}, fmt.Errorf("%w: max_results must be at most %d, got %d",
			domain.ErrInvalidRequest, ceiling, maxResults)
	}
	return Request{query: query, maxResults: maxResults}, nil
}

// Query returns the trimmed query text.
func (r Request) Query() string { return r.query }

// MaxResults returns the requested result count.
func (r Request) MaxResults() int { return r.maxResults }
