package vectorindex

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/assessrec/internal/domain"
	"github.com/kailas-cloud/assessrec/internal/domain/catalog"
)

// Build defaults.
const (
	DefaultBatchSize   = 64
	DefaultConcurrency = 4
)

// BuildOptions configures an index build.
type BuildOptions struct {
	Dimensions  int
	Metric      Metric
	Model       string
	BatchSize   int
	Concurrency int
}

// BuildResult is the built index plus provider usage.
type BuildResult struct {
	Index       *Index
	TotalTokens int
	Duration    time.Duration
}

// Builder embeds catalog records into a new index.
type Builder struct {
	embedder domain.BatchEmbedder
	opts     BuildOptions
	logger   *zap.Logger
}

// NewBuilder creates a builder. The embedder should already carry the
// document instruction prefix.
func NewBuilder(embedder domain.BatchEmbedder, opts BuildOptions, logger *zap.Logger) *Builder {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Metric == "" {
		opts.Metric = MetricCosine
	}
	return &Builder{embedder: embedder, opts: opts, logger: logger}
}

// Build embeds every record; slot i holds records[i].
func (b *Builder) Build(ctx context.Context, records []catalog.Record) (BuildResult, error) {
	if len(records) == 0 {
		return BuildResult{}, fmt.Errorf("no records to index")
	}

	start := time.Now()
	texts := make([]string, len(records))
	ids := make([]string, len(records))
	for i, r := range records {
		texts[i] = DocumentText(r)
		ids[i] = r.ID()
	}

	vectors := make([][]float32, len(records))
	var tokens atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Concurrency)

	for offset := 0; offset < len(texts); offset += b.opts.BatchSize {
		end := min(offset+b.opts.BatchSize, len(texts))
		g.Go(func() error {
			res, err := b.embedder.BatchEmbed(gctx, texts[offset:end])
			if err != nil {
				return fmt.Errorf("batch %d-%d: %w", offset, end, err)
			}
			if len(res.Embeddings) != end-offset {
				return fmt.Errorf("batch %d-%d: provider returned %d vectors", offset, end, len(res.Embeddings))
			}
			// каждый батч пишет в свой диапазон слотов
			copy(vectors[offset:end], res.Embeddings)
			tokens.Add(int64(res.TotalTokens))

			b.logger.Debug("Index batch embedded",
				zap.Int("offset", offset),
				zap.Int("size", end-offset),
				zap.Int("total_tokens", res.TotalTokens),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BuildResult{}, fmt.Errorf("embed catalog: %w", err)
	}

	dim := b.opts.Dimensions
	if dim <= 0 {
		dim = len(vectors[0])
	}
	ix, err := New(dim, b.opts.Metric, b.opts.Model, ids, vectors)
	if err != nil {
		return BuildResult{}, fmt.Errorf("assemble index: %w", err)
	}

	return BuildResult{
		Index:       ix,
		TotalTokens: int(tokens.Load()),
		Duration:    time.Since(start),
	}, nil
}

// DocumentText renders the text embedded for one record.
func DocumentText(r catalog.Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\n", r.Name())
	fmt.Fprintf(&sb, "Test Type: %s\n", strings.Join(r.TestTypes(), ", "))
	fmt.Fprintf(&sb, "Description: %s\n", r.Description())
	fmt.Fprintf(&sb, "Assessment Length: %d minutes\n", r.DurationMinutes())
	fmt.Fprintf(&sb, "Remote Testing Support: %s\n", yesNo(r.RemoteTesting()))
	fmt.Fprintf(&sb, "Adaptive Support: %s\n", yesNo(r.AdaptiveIRT()))
	fmt.Fprintf(&sb, "URL: %s", r.URL())
	return sb.String()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
