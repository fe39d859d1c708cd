package assessrec

import "context"

// Embedder converts query text to a vector. It must use the model the
// index was built with.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Generator sends a prompt to a generative model and returns its raw text.
// The engine expects a JSON object with a "recommendations" array of
// {"id", "rationale"} entries and falls back to similarity ranking on any
// failure.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// healthCheckable is implemented by embedders that can report reachability.
type healthCheckable interface {
	HealthCheck(ctx context.Context) error
}
