package metrics

import "github.com/prometheus/client_golang/prometheus"

// Generative model and recommendation metrics.
var (
	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assessrec",
			Name:      "generation_requests_total",
			Help:      "Total number of generative model calls",
		},
		[]string{"provider", "model", "status"},
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "assessrec",
			Name:      "generation_request_duration_seconds",
			Help:      "Generative model call duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
		},
		[]string{"provider", "model"},
	)

	GenerationTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assessrec",
			Name:      "generation_tokens_total",
			Help:      "Total generative model tokens consumed",
		},
		[]string{"provider", "model", "type"}, // type: "prompt" / "completion"
	)

	RecommendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assessrec",
			Name:      "recommend_requests_total",
			Help:      "Recommendation requests by outcome",
		},
		[]string{"outcome"}, // generated / fallback / similarity / invalid / unavailable
	)

	RecommendFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assessrec",
			Name:      "recommend_fallback_total",
			Help:      "Requests answered by similarity ranking after a degraded generation step",
		},
		[]string{"reason"}, // provider_error / timeout / rate_limited / parse_error / no_valid_ids
	)

	RecommendDroppedIDsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "assessrec",
			Name:      "recommend_dropped_ids_total",
			Help:      "Identifiers returned by the model that were not in the candidate set",
		},
	)

	RecommendCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "assessrec",
			Name:      "recommend_candidates",
			Help:      "Candidate set size per request",
			Buckets:   []float64{5, 10, 15, 20, 30, 50, 100},
		},
	)
)

var genMetricsRegistered bool

// RegisterGenerationMetrics registers generation and recommendation metrics. Must be called once from main.
func RegisterGenerationMetrics() {
	if genMetricsRegistered {
		return
	}
	prometheus.MustRegister(
		GenerationRequestsTotal,
		GenerationRequestDuration,
		GenerationTokensTotal,
		RecommendRequestsTotal,
		RecommendFallbackTotal,
		RecommendDroppedIDsTotal,
		RecommendCandidates,
	)
	genMetricsRegistered = true
}
