package domain

import "errors"

var (
	// ErrInvalidRequest signals bad caller input (empty query, max_results out of range).
	ErrInvalidRequest = errors.New("invalid request")
	// ErrRetrievalUnavailable signals that candidates could not be retrieved
	// (embedding provider or index failure).
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	// ErrGenerationDegraded signals a failed or invalid generative step.
	// It never reaches callers: the composer falls back to similarity ranking.
	ErrGenerationDegraded = errors.New("generation degraded")
	// ErrStartupFailure signals a missing or inconsistent catalog/index at boot.
	ErrStartupFailure = errors.New("startup failure")

	// ErrProviderTransient marks an external-call failure worth one retry
	// (rate limiting, 5xx, deadline).
	ErrProviderTransient = errors.New("transient provider error")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationProviderError signals a generative model failure.
	ErrGenerationProviderError = errors.New("generation provider error")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrNotFound signals a missing catalog record.
	ErrNotFound = errors.New("not found")
)
