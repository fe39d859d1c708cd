package assessrec

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/assessrec/internal/catalog"
	"github.com/kailas-cloud/assessrec/internal/domain"
	domcat "github.com/kailas-cloud/assessrec/internal/domain/catalog"
	"github.com/kailas-cloud/assessrec/internal/domain/recommendation"
	"github.com/kailas-cloud/assessrec/internal/retry"
	embeddinguc "github.com/kailas-cloud/assessrec/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/assessrec/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/assessrec/internal/usecase/recommend"
	retrievaluc "github.com/kailas-cloud/assessrec/internal/usecase/retrieval"
	"github.com/kailas-cloud/assessrec/internal/vectorindex"
)

// Внутренние интерфейсы для подмены в тестах.
type recommendUseCase interface {
	Recommend(ctx context.Context, req recommendation.Request) (recommendation.Response, error)
	Ceiling() int
}

type catalogReader interface {
	Get(id string) (domcat.Record, bool)
	Len() int
}

// Engine is the assessrec SDK entry point. It is safe for concurrent use.
type Engine struct {
	catalog    catalogReader
	recommend  recommendUseCase
	health     healthUseCase
	defaultMax int
	obs        *observer
}

// New loads the catalog and the index, verifies they match, and wires the
// recommendation pipeline.
func New(_ context.Context, opts ...Option) (*Engine, error) {
	cfg := &engineConfig{
		defaultMaxResults: recommendation.DefaultMaxResults,
		maxResultsCeiling: recommendation.DefaultCeiling,
		overFetchFactor:   retrievaluc.DefaultOverFetchFactor,
		overFetchFloor:    retrievaluc.DefaultOverFetchFloor,
		embeddingTimeout:  embeddinguc.DefaultTimeout,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.catalogPath == "" || cfg.indexPath == "" {
		return nil, errors.New("assessrec: catalog and index files required (use WithCatalogFile and WithIndexFile)")
	}
	if cfg.embedder == nil {
		return nil, errors.New("assessrec: embedder required (use WithEmbedder)")
	}
	if cfg.embeddingTimeout <= 0 {
		return nil, fmt.Errorf("assessrec: invalid embedding timeout %v", cfg.embeddingTimeout)
	}
	if cfg.defaultMaxResults <= 0 || cfg.maxResultsCeiling <= 0 || cfg.defaultMaxResults > cfg.maxResultsCeiling {
		return nil, fmt.Errorf("assessrec: invalid max results (default %d, ceiling %d)",
			cfg.defaultMaxResults, cfg.maxResultsCeiling)
	}

	cat, err := catalog.Load(cfg.catalogPath)
	if err != nil {
		return nil, fmt.Errorf("assessrec: %w", err)
	}
	ix, err := vectorindex.Load(cfg.indexPath)
	if err != nil {
		return nil, fmt.Errorf("assessrec: %w", err)
	}
	if err := vectorindex.Verify(ix, cat); err != nil {
		return nil, fmt.Errorf("assessrec: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	return wireEngine(cat, ix, cfg, obs), nil
}

func wireEngine(cat *catalog.Store, ix *vectorindex.Index, cfg *engineConfig, obs *observer) *Engine {
	var embedder domain.Embedder = newEmbedderAdapter(cfg.embedder, cfg.embeddingTimeout)
	if cfg.queryInstruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, cfg.queryInstruction)
	}

	// Pass nil interface (not typed nil pointer) when not configured.
	var generator recommenduc.Generator
	if cfg.generator != nil {
		generator = cfg.generator
	}
	var limiter recommenduc.Limiter
	if cfg.rateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.rateLimit), max(cfg.rateBurst, 1))
	}

	retriever := retrievaluc.New(ix, cat, retrievaluc.Options{
		OverFetchFactor: cfg.overFetchFactor,
		OverFetchFloor:  cfg.overFetchFloor,
	})

	recommendSvc := recommenduc.New(embedder, retriever, cat, generator, limiter, recommenduc.Options{
		MaxResultsCeiling: cfg.maxResultsCeiling,
		GenerationTimeout: cfg.generationTimeout,
	}, zap.NewNop())

	var checker healthuc.EmbeddingChecker
	if _, ok := cfg.embedder.(healthCheckable); ok {
		checker = newEmbedderAdapter(cfg.embedder, cfg.embeddingTimeout)
	}

	return &Engine{
		catalog:    cat,
		recommend:  recommendSvc,
		health:     healthuc.New(cat, ix, checker, nil),
		defaultMax: cfg.defaultMaxResults,
		obs:        obs,
	}
}

// Recommend returns up to maxResults assessments for query. maxResults 0
// uses the configured default; negative values or values above the
// ceiling fail with ErrInvalidRequest.
func (e *Engine) Recommend(ctx context.Context, query string, maxResults int) (rec Recommendation, err error) {
	start := time.Now()
	defer func() {
		e.obs.observe("recommend", start, err, "source", rec.Source, "items", len(rec.Items))
	}()

	if maxResults == 0 {
		maxResults = e.defaultMax
	}
	req, err := recommendation.NewRequest(query, maxResults, e.recommend.Ceiling())
	if err != nil {
		return Recommendation{}, fmt.Errorf("recommend: %w", err)
	}

	resp, err := e.recommend.Recommend(ctx, req)
	if err != nil {
		return Recommendation{}, fmt.Errorf("recommend: %w", err)
	}
	e.obs.recommended(string(resp.Source))
	return recommendationFromDomain(resp), nil
}

// Assessment returns the catalog record with the given id or ErrNotFound.
func (e *Engine) Assessment(id string) (Assessment, error) {
	r, ok := e.catalog.Get(id)
	if !ok {
		return Assessment{}, fmt.Errorf("assessment %q: %w", id, ErrNotFound)
	}
	return assessmentFromRecord(r), nil
}

// Len returns the number of catalog records.
func (e *Engine) Len() int { return e.catalog.Len() }

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
// Each attempt is bounded by the embedding timeout; a timed out or transient
// failure is retried once.
type embedderAdapter struct {
	inner  Embedder
	policy retry.Policy
}

func newEmbedderAdapter(inner Embedder, timeout time.Duration) *embedderAdapter {
	return &embedderAdapter{
		inner: inner,
		policy: retry.Policy{
			Attempts: 2,
			Timeout:  timeout,
			Delay:    100 * time.Millisecond,
		},
	}
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := retry.Do(ctx, a.policy, nil, func(ctx context.Context) (EmbeddingResult, error) {
		return a.inner.Embed(ctx, text)
	})
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	domain.UsageFromContext(ctx).AddEmbeddingTokens(r.TotalTokens)
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (a *embedderAdapter) HealthCheck(ctx context.Context) error {
	if hc, ok := a.inner.(healthCheckable); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
