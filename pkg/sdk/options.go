package assessrec

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Engine.
type Option interface {
	apply(*engineConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*engineConfig)

func (f optionFunc) apply(c *engineConfig) { f(c) }

type engineConfig struct {
	catalogPath string
	indexPath   string

	embedder         Embedder
	queryInstruction string
	generator        Generator

	defaultMaxResults int
	maxResultsCeiling int
	overFetchFactor   int
	overFetchFloor    int
	embeddingTimeout  time.Duration
	generationTimeout time.Duration
	rateLimit         float64
	rateBurst         int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithCatalogFile sets the catalog JSON file. Required.
func WithCatalogFile(path string) Option {
	return optionFunc(func(c *engineConfig) {
		c.catalogPath = path
	})
}

// WithIndexFile sets the vector index file built by "assessrec build-index". Required.
func WithIndexFile(path string) Option {
	return optionFunc(func(c *engineConfig) {
		c.indexPath = path
	})
}

// WithEmbedder sets the query embedding provider. Required.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *engineConfig) {
		c.embedder = e
	})
}

// WithQueryInstruction prefixes every query before embedding.
// Use the same instruction the index was built for.
func WithQueryInstruction(instruction string) Option {
	return optionFunc(func(c *engineConfig) {
		c.queryInstruction = instruction
	})
}

// WithGenerator enables generative reranking. Without it the engine
// returns similarity ranking.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *engineConfig) {
		c.generator = g
	})
}

// WithMaxResults sets the default result count (used when Recommend gets 0)
// and the ceiling above which requests are rejected. Defaults: 10 and 10.
func WithMaxResults(defaultMax, ceiling int) Option {
	return optionFunc(func(c *engineConfig) {
		c.defaultMaxResults = defaultMax
		c.maxResultsCeiling = ceiling
	})
}

// WithOverFetch sets how many candidates are retrieved per requested
// result: max(max_results*factor, floor). Defaults: 3 and 10.
func WithOverFetch(factor, floor int) Option {
	return optionFunc(func(c *engineConfig) {
		c.overFetchFactor = factor
		c.overFetchFloor = floor
	})
}

// WithEmbeddingTimeout bounds one query embedding attempt. A timed out
// attempt is retried once. Default: 10s.
func WithEmbeddingTimeout(d time.Duration) Option {
	return optionFunc(func(c *engineConfig) {
		c.embeddingTimeout = d
	})
}

// WithGenerationTimeout bounds one generation attempt. Default: 20s.
func WithGenerationTimeout(d time.Duration) Option {
	return optionFunc(func(c *engineConfig) {
		c.generationTimeout = d
	})
}

// WithRateLimit throttles generation calls to perSec with the given burst.
// Zero disables throttling (default).
func WithRateLimit(perSec float64, burst int) Option {
	return optionFunc(func(c *engineConfig) {
		c.rateLimit = perSec
		c.rateBurst = burst
	})
}

// WithLogger enables structured logging for engine operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *engineConfig) {
		c.logger = l
	})
}

// WithPrometheus registers engine metrics (operation counts, durations and
// recommendation sources) on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *engineConfig) {
		c.metricsReg = reg
	})
}
