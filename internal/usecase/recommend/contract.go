package recommend

import (
	"context"

	"github.com/kailas-cloud/assessrec/internal/domain"
	"github.com/kailas-cloud/assessrec/internal/domain/candidate"
	"github.com/kailas-cloud/assessrec/internal/domain/catalog"
)

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Retriever produces the candidate set for a query vector.
type Retriever interface {
	OverFetch(maxResults int) int
	Retrieve(query []float32, k int) ([]candidate.Match, error)
}

// Catalog resolves record ids to records.
type Catalog interface {
	Get(id string) (catalog.Record, bool)
}

// Generator sends a prompt to a generative model and returns its text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Limiter throttles outbound generation calls. *rate.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}
