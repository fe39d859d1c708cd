package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/assessrec/internal/catalog"
	"github.com/kailas-cloud/assessrec/internal/config"
	"github.com/kailas-cloud/assessrec/internal/db"
	"github.com/kailas-cloud/assessrec/internal/db/memory"
	dbRedis "github.com/kailas-cloud/assessrec/internal/db/redis"
	"github.com/kailas-cloud/assessrec/internal/domain"
	"github.com/kailas-cloud/assessrec/internal/metrics"
	"github.com/kailas-cloud/assessrec/internal/repository/embcache"
	"github.com/kailas-cloud/assessrec/internal/transport/gemini"
	openaiTransport "github.com/kailas-cloud/assessrec/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/assessrec/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/assessrec/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/assessrec/internal/usecase/recommend"
	retrievaluc "github.com/kailas-cloud/assessrec/internal/usecase/retrieval"
	"github.com/kailas-cloud/assessrec/internal/vectorindex"
)

// fullEmbedder is what the decorator chain exposes to its consumers.
type fullEmbedder interface {
	domain.Embedder
	domain.BatchEmbedder
	domain.HealthChecker
}

// cacheStore is the embedding cache backend.
type cacheStore interface {
	db.KVStore
	db.Pinger
}

// engine is the immutable data a process serves from.
type engine struct {
	catalog *catalog.Store
	index   *vectorindex.Index
}

// application is the composed recommendation stack.
type application struct {
	engine    engine
	recommend *recommenduc.Service
	health    *healthuc.Service
	close     func()
}

// loadEngine loads the catalog and the index and checks they belong together.
func loadEngine(cfg config.Config, logger *zap.Logger) (engine, error) {
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return engine{}, fmt.Errorf("load catalog: %w", err)
	}
	ix, err := vectorindex.Load(cfg.Index.Path)
	if err != nil {
		return engine{}, fmt.Errorf("load index: %w", err)
	}
	if err := vectorindex.Verify(ix, cat); err != nil {
		return engine{}, err //nolint:wrapcheck // already carries ErrStartupFailure
	}
	if cfg.Embedding.Dimensions > 0 && cfg.Embedding.Dimensions != ix.Dimensions() {
		return engine{}, fmt.Errorf("%w: index has %d dimensions, embedding.dimensions is %d",
			domain.ErrStartupFailure, ix.Dimensions(), cfg.Embedding.Dimensions)
	}
	if ix.Model() != "" && ix.Model() != cfg.Embedding.Model {
		logger.Warn("Index was built with a different embedding model",
			zap.String("index_model", ix.Model()),
			zap.String("embedding_model", cfg.Embedding.Model),
		)
	}

	logger.Info("Catalog and index loaded",
		zap.Int("records", cat.Len()),
		zap.Int("vectors", ix.Len()),
		zap.Int("dimensions", ix.Dimensions()),
		zap.String("metric", string(ix.Metric())),
	)
	return engine{catalog: cat, index: ix}, nil
}

// newApp assembles the recommendation stack: cache, query embedder,
// retrieval, generator, composer and health.
func newApp(ctx context.Context, cfg config.Config, eng engine, logger *zap.Logger) (*application, error) {
	cache, closeCache, err := buildCache(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, err
	}

	queryEmbedder := buildEmbedder(cfg.Embedding, cfg.Embedding.QueryInstruction, cache, cfg.Cache, logger)

	generator, err := buildGenerator(ctx, cfg.Generation, logger)
	if err != nil {
		closeCache()
		return nil, err
	}

	retriever := retrievaluc.New(eng.index, eng.catalog, retrievaluc.Options{
		OverFetchFactor: cfg.Retrieval.OverFetchFactor,
		OverFetchFloor:  cfg.Retrieval.OverFetchFloor,
	})

	recommendSvc := recommenduc.New(
		queryEmbedder, retriever, eng.catalog,
		generator, buildLimiter(cfg.Generation),
		recommenduc.Options{
			MaxResultsCeiling: cfg.Recommend.MaxResultsCeiling,
			DescriptionChars:  cfg.Generation.DescriptionChars,
			MaxQueryChars:     cfg.Generation.MaxQueryChars,
			GenerationTimeout: time.Duration(cfg.Generation.TimeoutSec) * time.Second,
			MaxLogLength:      cfg.Generation.MaxLogLength,
		},
		logger,
	)

	// Nil interface, not a typed nil pointer, when there is no cache.
	var cachePinger healthuc.CachePinger
	if cache != nil {
		cachePinger = cache
	}
	healthSvc := healthuc.New(eng.catalog, eng.index, queryEmbedder, cachePinger)

	return &application{
		engine:    eng,
		recommend: recommendSvc,
		health:    healthSvc,
		close:     closeCache,
	}, nil
}

// buildCache opens the shared query-embedding cache. A nil store means no cache.
func buildCache(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (cacheStore, func(), error) {
	noop := func() {}
	ttl := time.Duration(cfg.TTLSec) * time.Second

	switch cfg.Driver {
	case config.CacheMemory:
		store, err := memory.NewStore(cfg.Size, ttl)
		if err != nil {
			return nil, noop, fmt.Errorf("create memory cache: %w", err)
		}
		logger.Info("Embedding cache enabled", zap.String("driver", cfg.Driver), zap.Int("size", cfg.Size))
		return store, noop, nil
	case config.CacheRedis, config.CacheValkey:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("create %s cache: %w", cfg.Driver, err)
		}
		if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, noop, fmt.Errorf("%s cache not ready: %w", cfg.Driver, err)
		}
		logger.Info("Embedding cache enabled", zap.String("driver", cfg.Driver), zap.Strings("addrs", cfg.Addrs))
		return store, store.Close, nil
	default:
		return nil, noop, nil
	}
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction
func buildEmbedder(
	embCfg config.EmbeddingConfig,
	instruction string,
	cache cacheStore,
	cacheCfg config.CacheConfig,
	logger *zap.Logger,
) fullEmbedder {
	// Base provider (with transport metrics built-in)
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     embCfg.APIKey,
		BaseURL:    embCfg.BaseURL,
		Model:      embCfg.Model,
		Dimensions: embCfg.Dimensions,
		Provider:   embCfg.Provider,
		Logger:     logger,
	})

	// Cached
	var embedder domain.Embedder = base
	if cache != nil {
		embedder = embcache.New(base, cache, embcache.Config{
			Driver:     cacheCfg.Driver,
			Model:      embCfg.Model,
			TTL:        time.Duration(cacheCfg.TTLSec) * time.Second,
			CacheTotal: metrics.EmbeddingCacheTotal,
		}, logger)
	}

	// Instrumented (timeout + one retry + usage)
	instrumented := embeddinguc.NewInstrumentedEmbedder(
		embedder, embCfg.Provider, embCfg.Model,
		time.Duration(embCfg.TimeoutSec)*time.Second, logger,
	)

	// Instruction prefix is outermost: the cache key includes it
	if instruction != "" {
		return domain.NewInstructionEmbedder(instrumented, instruction)
	}
	return instrumented
}

// buildGenerator returns a nil interface for provider "none".
func buildGenerator(ctx context.Context, cfg config.GenerationConfig, logger *zap.Logger) (recommenduc.Generator, error) {
	var temperature float32
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}

	switch cfg.Provider {
	case config.GenerationGemini:
		g, err := gemini.NewGenerator(ctx, gemini.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: temperature,
			JSONMode:    !cfg.DisableJSONMode,
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini generator: %w", err)
		}
		logger.Info("Generator created", zap.String("provider", cfg.Provider), zap.String("model", g.Model()))
		return g, nil
	case config.GenerationOpenAI:
		g, err := openaiTransport.NewChatGenerator(&openaiTransport.GeneratorConfig{
			Config: openaiTransport.Config{
				APIKey:   cfg.APIKey,
				BaseURL:  cfg.BaseURL,
				Model:    cfg.Model,
				Provider: cfg.Provider,
				Logger:   logger,
			},
			Temperature: temperature,
			JSONMode:    !cfg.DisableJSONMode,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai generator: %w", err)
		}
		logger.Info("Generator created", zap.String("provider", cfg.Provider), zap.String("model", g.Model()))
		return g, nil
	default:
		logger.Info("Generation disabled, serving similarity ranking")
		return nil, nil
	}
}

// buildLimiter returns a nil interface when generation calls are unthrottled.
func buildLimiter(cfg config.GenerationConfig) recommenduc.Limiter {
	if cfg.RateLimitPerSec <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateBurst)
}
