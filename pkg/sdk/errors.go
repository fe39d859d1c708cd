package assessrec

import "github.com/kailas-cloud/assessrec/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidRequest          = domain.ErrInvalidRequest
	ErrRetrievalUnavailable    = domain.ErrRetrievalUnavailable
	ErrStartupFailure          = domain.ErrStartupFailure
	ErrNotFound                = domain.ErrNotFound
	ErrVectorDimMismatch       = domain.ErrVectorDimMismatch
	ErrEmbeddingProviderError  = domain.ErrEmbeddingProviderError
	ErrGenerationProviderError = domain.ErrGenerationProviderError
)
