package domain

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	result    EmbeddingResult
	err       error
	got       []string
	healthErr error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.got = append(s.got, text)
	return s.result, s.err
}

type stubHealthyEmbedder struct {
	stubEmbedder
}

func (s *stubHealthyEmbedder) HealthCheck(_ context.Context) error { return s.healthErr }

type stubBatchEmbedder struct {
	stubEmbedder
	batchResult BatchEmbeddingResult
	batchErr    error
	batchTexts  []string
}

func (s *stubBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
	s.batchTexts = texts
	return s.batchResult, s.batchErr
}

func TestInstructionEmbedder_Embed(t *testing.T) {
	tests := []struct {
		name        string
		instruction string
		input       string
		want        string
	}{
		{"prefix", "query: ", "java developer", "query: java developer"},
		{"empty instruction", "", "sales manager", "sales manager"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.1, 0.2}}}
			emb := NewInstructionEmbedder(inner, tc.instruction)

			res, err := emb.Embed(context.Background(), tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if inner.got[0] != tc.want {
				t.Errorf("inner got %q, want %q", inner.got[0], tc.want)
			}
			if len(res.Embedding) != 2 {
				t.Errorf("expected 2-element vector, got %d", len(res.Embedding))
			}
		})
	}
}

func TestInstructionEmbedder_ErrorPropagation(t *testing.T) {
	innerErr := errors.New("provider down")
	emb := NewInstructionEmbedder(&stubEmbedder{err: innerErr}, "query: ")

	if _, err := emb.Embed(context.Background(), "x"); !errors.Is(err, innerErr) {
		t.Errorf("expected wrapped inner error, got %v", err)
	}
}

func TestInstructionEmbedder_BatchEmbed_UsesBatchInner(t *testing.T) {
	inner := &stubBatchEmbedder{batchResult: BatchEmbeddingResult{
		Embeddings:  [][]float32{{0.1}, {0.2}},
		TotalTokens: 20,
	}}
	emb := NewInstructionEmbedder(inner, "passage: ")

	res, err := emb.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(res.Embeddings))
	}
	if inner.batchTexts[0] != "passage: a" || inner.batchTexts[1] != "passage: b" {
		t.Errorf("expected prefixed texts, got %v", inner.batchTexts)
	}
	if len(inner.got) != 0 {
		t.Errorf("single Embed must not be called, got %d calls", len(inner.got))
	}
}

func TestInstructionEmbedder_BatchEmbed_FallsBackToSingle(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.5}, PromptTokens: 3, TotalTokens: 3}}
	emb := NewInstructionEmbedder(inner, "passage: ")

	res, err := emb.BatchEmbed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(res.Embeddings))
	}
	if res.TotalTokens != 9 || res.PromptTokens != 9 {
		t.Errorf("expected 9/9 tokens, got %d/%d", res.PromptTokens, res.TotalTokens)
	}
}

func TestBatchFallback_Error(t *testing.T) {
	innerErr := errors.New("fail")
	_, err := BatchFallback(context.Background(), &stubEmbedder{err: innerErr}, []string{"a"})
	if !errors.Is(err, innerErr) {
		t.Errorf("expected wrapped inner error, got %v", err)
	}
}

func TestInstructionEmbedder_HealthCheck(t *testing.T) {
	plain := NewInstructionEmbedder(&stubEmbedder{}, "q: ")
	if err := plain.HealthCheck(context.Background()); err != nil {
		t.Errorf("embedder without health check should report healthy, got %v", err)
	}

	down := errors.New("down")
	checked := NewInstructionEmbedder(&stubHealthyEmbedder{stubEmbedder{healthErr: down}}, "q: ")
	if err := checked.HealthCheck(context.Background()); !errors.Is(err, down) {
		t.Errorf("expected inner health error, got %v", err)
	}
}

func TestUsage_Context(t *testing.T) {
	if UsageFromContext(context.Background()) != nil {
		t.Fatal("expected nil usage on bare context")
	}
	// nil receiver is a no-op
	var none *Usage
	none.AddEmbeddingTokens(5)
	if n, used := none.EmbeddingTokens(); n != 0 || used {
		t.Errorf("nil usage should report zero, got %d/%v", n, used)
	}

	ctx, u := NewContextWithUsage(context.Background())
	UsageFromContext(ctx).AddEmbeddingTokens(0)
	UsageFromContext(ctx).AddGenerationTokens(42)

	n, used := u.EmbeddingTokens()
	if n != 0 || !used {
		t.Errorf("cache hit should mark embedding used with 0 tokens, got %d/%v", n, used)
	}
	if u.GenerationTokens() != 42 {
		t.Errorf("expected 42 generation tokens, got %d", u.GenerationTokens())
	}
}
