// Package recommend composes the final recommendation list: it retrieves
// candidates, asks a generative model to select and order them, and falls
// back to similarity ranking whenever the model cannot be used.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/assessrec/internal/domain"
	"github.com/kailas-cloud/assessrec/internal/domain/candidate"
	"github.com/kailas-cloud/assessrec/internal/domain/recommendation"
	"github.com/kailas-cloud/assessrec/internal/logger"
	"github.com/kailas-cloud/assessrec/internal/metrics"
	"github.com/kailas-cloud/assessrec/internal/retry"
)

// Fallback reasons, used as metric labels.
const (
	ReasonProviderError = "provider_error"
	ReasonTimeout       = "timeout"
	ReasonRateLimited   = "rate_limited"
	ReasonParseError    = "parse_error"
	ReasonNoValidIDs    = "no_valid_ids"
)

// Request outcomes beyond the response sources.
const (
	outcomeInvalid     = "invalid"
	outcomeUnavailable = "unavailable"
)

// DefaultGenerationTimeout bounds one generation attempt.
const DefaultGenerationTimeout = 20 * time.Second

const defaultMaxLogLength = 200

// Options tunes the composer.
type Options struct {
	MaxResultsCeiling int
	DescriptionChars  int
	MaxQueryChars     int
	GenerationTimeout time.Duration
	MaxLogLength      int
}

// Service is safe for concurrent use; all per-request state is local.
type Service struct {
	embedder  Embedder
	retriever Retriever
	catalog   Catalog
	generator Generator
	limiter   Limiter
	opts      Options
	logger    *zap.Logger
}

// New creates the composer. A nil generator runs similarity-only; a nil
// limiter disables throttling.
func New(
	embedder Embedder, retriever Retriever, catalog Catalog,
	generator Generator, limiter Limiter, opts Options, logger *zap.Logger,
) *Service {
	if opts.MaxResultsCeiling <= 0 {
		opts.MaxResultsCeiling = recommendation.DefaultCeiling
	}
	if opts.DescriptionChars <= 0 {
		opts.DescriptionChars = DefaultDescriptionChars
	}
	if opts.MaxQueryChars <= 0 {
		opts.MaxQueryChars = DefaultMaxQueryChars
	}
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = DefaultGenerationTimeout
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}
	return &Service{
		embedder:  embedder,
		retriever: retriever,
		catalog:   catalog,
		generator: generator,
		limiter:   limiter,
		opts:      opts,
		logger:    logger,
	}
}

// Ceiling returns the upper bound for max results.
func (s *Service) Ceiling() int { return s.opts.MaxResultsCeiling }

// Recommend runs validate, embed, retrieve, generate, parse, (fallback), join.
// Only ErrInvalidRequest and ErrRetrievalUnavailable reach the caller;
// generation problems degrade to similarity ranking.
func (s *Service) Recommend(ctx context.Context, req recommendation.Request) (recommendation.Response, error) {
	id := uuid.NewString()
	log := logger.FromContext(ctx, s.logger).With(zap.String("recommendation_id", id))

	// validating
	if _, err := recommendation.NewRequest(req.Query(), req.MaxResults(), s.opts.MaxResultsCeiling); err != nil {
		metrics.RecommendRequestsTotal.WithLabelValues(outcomeInvalid).Inc()
		return recommendation.Response{}, fmt.Errorf("validate: %w", err)
	}
	maxResults := req.MaxResults()

	// embedding
	log.Debug("recommend stage", zap.String("stage", "embedding"))
	emb, err := s.embedder.Embed(ctx, req.Query())
	if err != nil {
		metrics.RecommendRequestsTotal.WithLabelValues(outcomeUnavailable).Inc()
		return recommendation.Response{}, fmt.Errorf("%w: embed query: %w", domain.ErrRetrievalUnavailable, err)
	}

	// retrieving
	k := s.retriever.OverFetch(maxResults)
	log.Debug("recommend stage", zap.String("stage", "retrieving"), zap.Int("k", k))
	matches, err := s.retriever.Retrieve(emb.Embedding, k)
	if err != nil {
		metrics.RecommendRequestsTotal.WithLabelValues(outcomeUnavailable).Inc()
		if !errors.Is(err, domain.ErrRetrievalUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, err)
		}
		return recommendation.Response{}, fmt.Errorf("retrieve: %w", err)
	}
	cands := s.join(matches)
	metrics.RecommendCandidates.Observe(float64(len(cands)))

	resp := recommendation.Response{ID: id, Candidates: len(cands)}

	if s.generator == nil || len(cands) == 0 {
		resp.Source = recommendation.SourceSimilarity
		resp.Items = similarityItems(cands, maxResults)
		s.finish(log, resp)
		return resp, nil
	}

	// generating → parsing
	items, reason, err := s.generate(ctx, log, req.Query(), cands, maxResults)
	if err != nil {
		// fallback
		log.Warn("Generation degraded, using similarity ranking",
			zap.String("reason", reason),
			zap.Error(fmt.Errorf("%w: %w", domain.ErrGenerationDegraded, err)),
		)
		metrics.RecommendFallbackTotal.WithLabelValues(reason).Inc()
		resp.Source = recommendation.SourceFallback
		resp.Items = similarityItems(cands, maxResults)
		s.finish(log, resp)
		return resp, nil
	}

	resp.Source = recommendation.SourceGenerated
	resp.Items = items
	s.finish(log, resp)
	return resp, nil
}

func (s *Service) finish(log *zap.Logger, resp recommendation.Response) {
	metrics.RecommendRequestsTotal.WithLabelValues(string(resp.Source)).Inc()
	log.Debug("recommend stage",
		zap.String("stage", "done"),
		zap.String("source", string(resp.Source)),
		zap.Int("candidates", resp.Candidates),
		zap.Int("items", len(resp.Items)),
	)
}

// join resolves matches to catalog records, keeping retrieval order.
func (s *Service) join(matches []candidate.Match) []promptCandidate {
	out := make([]promptCandidate, 0, len(matches))
	for _, m := range matches {
		rec, ok := s.catalog.Get(m.ID())
		if !ok {
			continue
		}
		out = append(out, promptCandidate{match: m, record: rec})
	}
	return out
}

// generate asks the model for an ordering. On failure it returns the
// fallback reason.
func (s *Service) generate(
	ctx context.Context, log *zap.Logger, query string, cands []promptCandidate, maxResults int,
) ([]recommendation.Item, string, error) {
	prompt := buildPrompt(query, cands, maxResults, s.opts.DescriptionChars, s.opts.MaxQueryChars)

	if s.limiter != nil {
		// Очередь в лимитере ограничена тем же таймаутом, что и генерация.
		waitCtx, cancel := context.WithTimeout(ctx, s.opts.GenerationTimeout)
		err := s.limiter.Wait(waitCtx)
		cancel()
		if err != nil {
			return nil, ReasonRateLimited, fmt.Errorf("rate limiter: %w", err)
		}
	}

	log.Debug("recommend stage",
		zap.String("stage", "generating"),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, s.opts.MaxLogLength)),
	)

	policy := retry.Policy{
		Attempts: 2,
		Timeout:  s.opts.GenerationTimeout,
		OnRetry: func(attempt int, err error) {
			log.Warn("Generation failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
		},
	}
	raw, err := retry.Do(ctx, policy, nil, func(ctx context.Context) (string, error) {
		return s.generator.Generate(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ReasonTimeout, err
		}
		return nil, ReasonProviderError, err
	}

	log.Debug("recommend stage",
		zap.String("stage", "parsing"),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, s.opts.MaxLogLength)),
	)

	allowed := make(map[string]struct{}, len(cands))
	byID := make(map[string]promptCandidate, len(cands))
	for _, c := range cands {
		allowed[c.record.ID()] = struct{}{}
		byID[c.record.ID()] = c
	}

	selected, dropped, err := parseSelection(raw, allowed, maxResults)
	if dropped > 0 {
		metrics.RecommendDroppedIDsTotal.Add(float64(dropped))
		log.Warn("Model returned identifiers outside the candidate set", zap.Int("dropped", dropped))
	}
	if err != nil {
		if errors.Is(err, errNoValid) {
			return nil, ReasonNoValidIDs, err
		}
		return nil, ReasonParseError, err
	}

	items := make([]recommendation.Item, 0, len(selected))
	for _, sel := range selected {
		c := byID[sel.id]
		items = append(items, recommendation.Item{
			Record:    c.record,
			Score:     c.match.Score(),
			Rationale: sel.rationale,
		})
	}
	return items, "", nil
}

// similarityItems is the fallback: the top candidates in retrieval order.
func similarityItems(cands []promptCandidate, maxResults int) []recommendation.Item {
	n := min(len(cands), maxResults)
	items := make([]recommendation.Item, 0, n)
	for _, c := range cands[:n] {
		items = append(items, recommendation.Item{Record: c.record, Score: c.match.Score()})
	}
	return items
}
