package health

import "context"

// Catalog reports the loaded catalog size.
type Catalog interface {
	Len() int
}

// Index reports the loaded vector index size.
type Index interface {
	Len() int
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// CachePinger checks the shared embedding cache.
type CachePinger interface {
	Ping(ctx context.Context) error
}
