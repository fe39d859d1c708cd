package assessrec

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/assessrec/internal/catalog"
	domcat "github.com/kailas-cloud/assessrec/internal/domain/catalog"
	"github.com/kailas-cloud/assessrec/internal/vectorindex"
)

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type checkedEmbedder struct {
	mockEmbedder
	healthErr error
}

func (m *checkedEmbedder) HealthCheck(context.Context) error { return m.healthErr }

type mockGenerator struct {
	out    string
	err    error
	prompt string
}

func (m *mockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.prompt = prompt
	return m.out, m.err
}

// topicEmbedder puts java, python and everything else on separate axes.
func topicEmbedder() *mockEmbedder {
	return &mockEmbedder{fn: func(_ context.Context, text string) (EmbeddingResult, error) {
		text = strings.ToLower(text)
		switch {
		case strings.Contains(text, "java"):
			return EmbeddingResult{Embedding: []float32{1, 0, 0}, TotalTokens: 3}, nil
		case strings.Contains(text, "python"):
			return EmbeddingResult{Embedding: []float32{0, 1, 0}, TotalTokens: 3}, nil
		default:
			return EmbeddingResult{Embedding: []float32{0, 0, 1}, TotalTokens: 3}, nil
		}
	}}
}

// writeFixture writes a three-record catalog and a matching index.
func writeFixture(t *testing.T) (catalogPath, indexPath string) {
	t.Helper()
	dir := t.TempDir()
	catalogPath = filepath.Join(dir, "catalog.json")
	indexPath = filepath.Join(dir, "index.parquet")

	fields := []domcat.Fields{
		{ID: "java-8", Name: "Java 8", URL: "https://example.com/java-8/", DurationMinutes: 30, RemoteTesting: true},
		{ID: "python", Name: "Python", URL: "https://example.com/python/", DurationMinutes: 20},
		{ID: "opq", URL: "https://example.com/occupational-personality-questionnaire/", DurationMinutes: 25},
	}
	records := make([]domcat.Record, len(fields))
	for i, f := range fields {
		r, err := domcat.New(f)
		if err != nil {
			t.Fatalf("new record: %v", err)
		}
		records[i] = r
	}
	if err := catalog.Save(catalogPath, records); err != nil {
		t.Fatalf("save catalog: %v", err)
	}

	ix, err := vectorindex.New(3, vectorindex.MetricCosine, "test-model",
		[]string{"java-8", "python", "opq"},
		[][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	if err := vectorindex.Save(indexPath, ix); err != nil {
		t.Fatalf("save index: %v", err)
	}
	return catalogPath, indexPath
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	catalogPath, indexPath := writeFixture(t)
	base := []Option{WithCatalogFile(catalogPath), WithIndexFile(indexPath), WithEmbedder(topicEmbedder())}
	e, err := New(context.Background(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestNew_RequiredOptions(t *testing.T) {
	catalogPath, indexPath := writeFixture(t)
	tests := []struct {
		name string
		opts []Option
	}{
		{"no files", []Option{WithEmbedder(topicEmbedder())}},
		{"no embedder", []Option{WithCatalogFile(catalogPath), WithIndexFile(indexPath)}},
		{"default above ceiling", []Option{
			WithCatalogFile(catalogPath), WithIndexFile(indexPath),
			WithEmbedder(topicEmbedder()), WithMaxResults(20, 10),
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(context.Background(), tc.opts...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNew_IndexCatalogMismatch(t *testing.T) {
	catalogPath, _ := writeFixture(t)
	ix, err := vectorindex.New(3, vectorindex.MetricCosine, "m", []string{"java-8"}, [][]float32{{1, 0, 0}})
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	indexPath := filepath.Join(t.TempDir(), "short.parquet")
	if err := vectorindex.Save(indexPath, ix); err != nil {
		t.Fatalf("save index: %v", err)
	}

	_, err = New(context.Background(),
		WithCatalogFile(catalogPath), WithIndexFile(indexPath), WithEmbedder(topicEmbedder()))
	if !errors.Is(err, ErrStartupFailure) {
		t.Fatalf("expected ErrStartupFailure, got %v", err)
	}
}

func TestEngine_Recommend_Similarity(t *testing.T) {
	e := newTestEngine(t)

	rec, err := e.Recommend(context.Background(), "python data engineer", 2)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if rec.Source != SourceSimilarity {
		t.Errorf("source = %q, want %q", rec.Source, SourceSimilarity)
	}
	if len(rec.Items) != 2 || rec.Items[0].ID != "python" {
		t.Fatalf("unexpected items: %+v", rec.Items)
	}
	if rec.Items[0].Score <= rec.Items[1].Score {
		t.Errorf("expected descending scores, got %v then %v", rec.Items[0].Score, rec.Items[1].Score)
	}
	if rec.ID == "" {
		t.Error("expected recommendation id")
	}
}

func TestEngine_Recommend_Generated(t *testing.T) {
	gen := &mockGenerator{out: "```json\n{\"recommendations\":[{\"id\":\"opq\",\"rationale\":\"collaboration\"},{\"id\":\"made-up\"},{\"id\":\"java-8\"}]}\n```"}
	e := newTestEngine(t, WithGenerator(gen))

	rec, err := e.Recommend(context.Background(), "Java developer who collaborates with business teams", 0)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if rec.Source != SourceGenerated {
		t.Fatalf("source = %q, want %q", rec.Source, SourceGenerated)
	}
	if len(rec.Items) != 2 || rec.Items[0].ID != "opq" || rec.Items[1].ID != "java-8" {
		t.Fatalf("unexpected items: %+v", rec.Items)
	}
	if rec.Items[0].Rationale != "collaboration" {
		t.Errorf("rationale = %q", rec.Items[0].Rationale)
	}
	if rec.Items[0].Name != "Occupational Personality Questionnaire" {
		t.Errorf("name derived from url = %q", rec.Items[0].Name)
	}
	if !strings.Contains(gen.prompt, "java-8") {
		t.Error("expected candidate ids in prompt")
	}
}

func TestEngine_Recommend_Fallback(t *testing.T) {
	e := newTestEngine(t,
		WithGenerator(&mockGenerator{err: errors.New("quota exceeded")}),
		WithGenerationTimeout(time.Second),
	)

	rec, err := e.Recommend(context.Background(), "java", 1)
	if err != nil {
		t.Fatalf("generation failure must not surface: %v", err)
	}
	if rec.Source != SourceFallback {
		t.Errorf("source = %q, want %q", rec.Source, SourceFallback)
	}
	if len(rec.Items) != 1 || rec.Items[0].ID != "java-8" {
		t.Errorf("unexpected items: %+v", rec.Items)
	}
}

func TestEngine_Recommend_Errors(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.Recommend(context.Background(), "  ", 5); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("blank query: expected ErrInvalidRequest, got %v", err)
	}
	if _, err := e.Recommend(context.Background(), "java", 11); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("above ceiling: expected ErrInvalidRequest, got %v", err)
	}
	if _, err := e.Recommend(context.Background(), "java", -1); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("negative: expected ErrInvalidRequest, got %v", err)
	}

	failing := newTestEngine(t, WithEmbedder(&mockEmbedder{
		fn: func(context.Context, string) (EmbeddingResult, error) {
			return EmbeddingResult{}, errors.New("provider down")
		},
	}))
	if _, err := failing.Recommend(context.Background(), "java", 1); !errors.Is(err, ErrRetrievalUnavailable) {
		t.Errorf("embedding failure: expected ErrRetrievalUnavailable, got %v", err)
	}
}

func TestEngine_Recommend_EmbeddingTimeout(t *testing.T) {
	var calls atomic.Int32
	hanging := &mockEmbedder{fn: func(ctx context.Context, _ string) (EmbeddingResult, error) {
		calls.Add(1)
		<-ctx.Done()
		return EmbeddingResult{}, ctx.Err()
	}}
	e := newTestEngine(t, WithEmbedder(hanging), WithEmbeddingTimeout(50*time.Millisecond))

	errCh := make(chan error, 1)
	go func() {
		_, err := e.Recommend(context.Background(), "java", 1)
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrRetrievalUnavailable) {
			t.Errorf("expected ErrRetrievalUnavailable, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("recommend blocked on a hanging embedder")
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("embed calls = %d, want 2 (one retry)", got)
	}
}

func TestNew_InvalidEmbeddingTimeout(t *testing.T) {
	catalogPath, indexPath := writeFixture(t)
	_, err := New(context.Background(),
		WithCatalogFile(catalogPath), WithIndexFile(indexPath),
		WithEmbedder(topicEmbedder()), WithEmbeddingTimeout(-time.Second))
	if err == nil {
		t.Fatal("expected error for negative embedding timeout")
	}
}

func TestEngine_Assessment(t *testing.T) {
	e := newTestEngine(t)

	a, err := e.Assessment("java-8")
	if err != nil {
		t.Fatalf("Assessment: %v", err)
	}
	if a.Name != "Java 8" || !a.RemoteTesting || a.DurationMinutes != 30 {
		t.Errorf("unexpected assessment: %+v", a)
	}
	if _, err := e.Assessment("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if e.Len() != 3 {
		t.Errorf("Len = %d, want 3", e.Len())
	}
}

func TestEngine_Health(t *testing.T) {
	e := newTestEngine(t)
	h := e.Health(context.Background())
	if h.Status != "ok" {
		t.Errorf("status = %q, checks = %v", h.Status, h.Checks)
	}
	if _, ok := h.Checks["embedding"]; ok {
		t.Error("embedding check must be skipped when the embedder cannot report health")
	}

	down := &checkedEmbedder{mockEmbedder: *topicEmbedder(), healthErr: errors.New("down")}
	e = newTestEngine(t, WithEmbedder(down))
	h = e.Health(context.Background())
	if h.Status != "degraded" || h.Checks["embedding"] != "error" {
		t.Errorf("expected degraded with embedding error, got %+v", h)
	}
}

func TestEngine_QueryInstruction(t *testing.T) {
	var seen string
	emb := &mockEmbedder{fn: func(_ context.Context, text string) (EmbeddingResult, error) {
		seen = text
		return EmbeddingResult{Embedding: []float32{1, 0, 0}}, nil
	}}
	e := newTestEngine(t, WithEmbedder(emb), WithQueryInstruction("query: "))
	if _, err := e.Recommend(context.Background(), "java", 1); err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if seen != "query: java" {
		t.Errorf("embedded text = %q", seen)
	}
}

func TestEngine_Prometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := newTestEngine(t, WithPrometheus(reg), WithLogger(slog.Default()))

	if _, err := e.Recommend(context.Background(), "java", 1); err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	_, _ = e.Recommend(context.Background(), "", 1)

	n, err := testutil.GatherAndCount(reg, "assessrec_sdk_operations_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 2 {
		t.Errorf("expected ok and error samples, got %d", n)
	}
	obs := e.obs.metrics
	if got := testutil.ToFloat64(obs.sources.WithLabelValues(SourceSimilarity)); got != 1 {
		t.Errorf("similarity recommendations = %v, want 1", got)
	}

	// Повторная регистрация на том же registry переиспользует коллекторы
	if _, err := newObserver(nil, reg); err != nil {
		t.Errorf("re-register: %v", err)
	}
}

func TestOptions(t *testing.T) {
	cfg := &engineConfig{}
	WithMaxResults(5, 8).apply(cfg)
	WithOverFetch(4, 12).apply(cfg)
	WithRateLimit(2.5, 3).apply(cfg)
	WithGenerationTimeout(5 * time.Second).apply(cfg)
	WithEmbeddingTimeout(2 * time.Second).apply(cfg)

	if cfg.defaultMaxResults != 5 || cfg.maxResultsCeiling != 8 {
		t.Errorf("max results = (%d, %d)", cfg.defaultMaxResults, cfg.maxResultsCeiling)
	}
	if cfg.overFetchFactor != 4 || cfg.overFetchFloor != 12 {
		t.Errorf("over-fetch = (%d, %d)", cfg.overFetchFactor, cfg.overFetchFloor)
	}
	if cfg.rateLimit != 2.5 || cfg.rateBurst != 3 {
		t.Errorf("rate = (%v, %d)", cfg.rateLimit, cfg.rateBurst)
	}
	if cfg.generationTimeout != 5*time.Second {
		t.Errorf("generation timeout = %v", cfg.generationTimeout)
	}
	if cfg.embeddingTimeout != 2*time.Second {
		t.Errorf("embedding timeout = %v", cfg.embeddingTimeout)
	}
}

func TestObserver_NilSafe(t *testing.T) {
	var obs *observer
	obs.observe("test", time.Now(), nil)
	obs.observe("test", time.Now(), errors.New("err"))
	obs.recommended(SourceGenerated)
}
