package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/assessrec/internal/catalog"
	"github.com/kailas-cloud/assessrec/internal/config"
	"github.com/kailas-cloud/assessrec/internal/metrics"
	"github.com/kailas-cloud/assessrec/internal/vectorindex"
)

var buildOutput string

var buildIndexCmd = &cobra.Command{
	Use:   "build-index",
	Short: "Embed the catalog and write the vector index file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, _, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		if buildOutput != "" {
			cfg.Index.Path = buildOutput
		}
		return buildIndex(cmd.Context(), cfg, logger)
	},
}

func init() {
	buildIndexCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "index file to write (default is index.path)")
	rootCmd.AddCommand(buildIndexCmd)
}

func buildIndex(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	metrics.RegisterEmbeddingMetrics()

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	metric, err := vectorindex.ParseMetric(cfg.Build.Metric)
	if err != nil {
		return err //nolint:wrapcheck // message names the field
	}

	// Documents are embedded once; no cache.
	embedder := buildEmbedder(cfg.Embedding, cfg.Embedding.DocumentInstruction, nil, cfg.Cache, logger)

	builder := vectorindex.NewBuilder(embedder, vectorindex.BuildOptions{
		Dimensions:  cfg.Embedding.Dimensions,
		Metric:      metric,
		Model:       cfg.Embedding.Model,
		BatchSize:   cfg.Build.BatchSize,
		Concurrency: cfg.Build.Concurrency,
	}, logger)

	logger.Info("Building index",
		zap.String("catalog", cfg.Catalog.Path),
		zap.Int("records", cat.Len()),
		zap.String("model", cfg.Embedding.Model),
		zap.String("metric", string(metric)),
	)

	res, err := builder.Build(ctx, cat.Records())
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := vectorindex.Save(cfg.Index.Path, res.Index); err != nil {
		return fmt.Errorf("save index: %w", err)
	}

	// Перечитываем файл: то, что записали, должно пройти стартовую проверку
	reloaded, err := vectorindex.Load(cfg.Index.Path)
	if err != nil {
		return fmt.Errorf("reload index: %w", err)
	}
	if err := vectorindex.Verify(reloaded, cat); err != nil {
		return fmt.Errorf("verify index: %w", err)
	}

	logger.Info("Index written",
		zap.String("path", cfg.Index.Path),
		zap.Int("vectors", reloaded.Len()),
		zap.Int("dimensions", reloaded.Dimensions()),
		zap.Int("total_tokens", res.TotalTokens),
		zap.Duration("duration", res.Duration),
	)
	return nil
}
