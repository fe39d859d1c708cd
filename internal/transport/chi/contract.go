package chi

import (
	"context"

	domcat "github.com/kailas-cloud/assessrec/internal/domain/catalog"
	"github.com/kailas-cloud/assessrec/internal/domain/recommendation"
	healthuc "github.com/kailas-cloud/assessrec/internal/usecase/health"
)

// Recommender produces recommendations for validated requests.
type Recommender interface {
	Recommend(ctx context.Context, req recommendation.Request) (recommendation.Response, error)
	Ceiling() int
}

// CatalogReader looks up catalog records by id.
type CatalogReader interface {
	Get(id string) (domcat.Record, bool)
}

// HealthChecker reports service readiness.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
