package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates a provider or cache failure; requests may still be served.
	Degraded Status = "degraded"
	// Unhealthy indicates the catalog or index is unusable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	catalog   Catalog
	index     Index
	embedding EmbeddingChecker
	cache     CachePinger
}

// New creates a Service. embedding and cache can be nil.
func New(catalog Catalog, index Index, embedding EmbeddingChecker, cache CachePinger) *Service {
	return &Service{catalog: catalog, index: index, embedding: embedding, cache: cache}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	catalogOK := s.catalog != nil && s.catalog.Len() > 0
	checks["catalog"] = result(catalogOK)

	// Индекс обязан покрывать каталог один к одному
	indexOK := catalogOK && s.index != nil && s.index.Len() == s.catalog.Len()
	checks["index"] = result(indexOK)

	if s.embedding != nil {
		checks["embedding"] = result(s.embedding.HealthCheck(ctx) == nil)
	}
	if s.cache != nil {
		checks["cache"] = result(s.cache.Ping(ctx) == nil)
	}

	status := Healthy
	switch {
	case !catalogOK || !indexOK:
		status = Unhealthy
	case checks["embedding"] == CheckError || checks["cache"] == CheckError:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}

func result(ok bool) CheckResult {
	if ok {
		return CheckOK
	}
	return CheckError
}
