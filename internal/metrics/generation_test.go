package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecommendMetrics_Labels(t *testing.T) {
	RecommendFallbackTotal.WithLabelValues("parse_error").Inc()
	RecommendRequestsTotal.WithLabelValues("fallback").Inc()

	if v := testutil.ToFloat64(RecommendFallbackTotal.WithLabelValues("parse_error")); v < 1 {
		t.Errorf("expected fallback counter >= 1, got %f", v)
	}
	if v := testutil.ToFloat64(RecommendRequestsTotal.WithLabelValues("fallback")); v < 1 {
		t.Errorf("expected requests counter >= 1, got %f", v)
	}
}

func TestGenerationMetrics_LintClean(t *testing.T) {
	collectors := []prometheus.Collector{
		GenerationRequestsTotal, GenerationRequestDuration, GenerationTokensTotal,
		RecommendRequestsTotal, RecommendFallbackTotal, RecommendDroppedIDsTotal, RecommendCandidates,
		EmbeddingRequestsTotal, EmbeddingRequestDuration, EmbeddingTokensTotal,
		EmbeddingErrorsTotal, EmbeddingRetriesTotal, EmbeddingCacheTotal,
	}
	for _, c := range collectors {
		problems, err := testutil.CollectAndLint(c)
		if err != nil {
			t.Fatalf("lint: %v", err)
		}
		for _, p := range problems {
			t.Errorf("%s: %s", p.Metric, p.Text)
		}
	}
}

func TestRegister_Idempotent(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("double registration panicked: %v", r)
		}
	}()
	RegisterGenerationMetrics()
	RegisterGenerationMetrics()
	RegisterEmbeddingMetrics()
	RegisterEmbeddingMetrics()
	RegisterHTTPMetrics()
	RegisterHTTPMetrics()
}
