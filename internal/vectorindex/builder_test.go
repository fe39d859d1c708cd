package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/assessrec/internal/domain"
	"github.com/kailas-cloud/assessrec/internal/domain/catalog"
)

// mockBatchEmbedder encodes the record number found in "Title: R<n>" as a vector.
type mockBatchEmbedder struct {
	mu     sync.Mutex
	calls  int
	failOn int
}

func (m *mockBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.mu.Unlock()
	if m.failOn > 0 && call == m.failOn {
		return domain.BatchEmbeddingResult{}, errors.New("provider down")
	}

	out := domain.BatchEmbeddingResult{TotalTokens: len(texts)}
	for _, text := range texts {
		var n int
		line := strings.SplitN(text, "\n", 2)[0]
		if _, err := fmt.Sscanf(line, "Title: R%d", &n); err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("unexpected text %q", line)
		}
		out.Embeddings = append(out.Embeddings, []float32{float32(n), 1})
	}
	return out, nil
}

func testRecords(t *testing.T, n int) []catalog.Record {
	t.Helper()
	out := make([]catalog.Record, n)
	for i := range n {
		r, err := catalog.New(catalog.Fields{ID: fmt.Sprintf("id-%d", i), Name: fmt.Sprintf("R%d", i)})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
		out[i] = r
	}
	return out
}

func TestBuilder_Build(t *testing.T) {
	emb := &mockBatchEmbedder{}
	b := NewBuilder(emb, BuildOptions{Model: "m", BatchSize: 3, Concurrency: 2}, zap.NewNop())

	res, err := b.Build(context.Background(), testRecords(t, 10))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if emb.calls != 4 {
		t.Errorf("expected 4 batches, got %d", emb.calls)
	}
	if res.TotalTokens != 10 {
		t.Errorf("expected 10 tokens, got %d", res.TotalTokens)
	}
	ix := res.Index
	if ix.Len() != 10 || ix.Dimensions() != 2 || ix.Metric() != MetricCosine {
		t.Fatalf("index: len=%d dim=%d metric=%s", ix.Len(), ix.Dimensions(), ix.Metric())
	}
	for slot, id := range ix.IDs() {
		if id != fmt.Sprintf("id-%d", slot) {
			t.Errorf("slot %d = %s", slot, id)
		}
		if v := ix.Vector(slot); v[0] != float32(slot) {
			t.Errorf("slot %d carries vector of record %v", slot, v[0])
		}
	}
}

func TestBuilder_Errors(t *testing.T) {
	b := NewBuilder(&mockBatchEmbedder{failOn: 2}, BuildOptions{BatchSize: 2, Concurrency: 1}, zap.NewNop())
	if _, err := b.Build(context.Background(), testRecords(t, 6)); err == nil {
		t.Fatal("expected provider error")
	}
	if _, err := b.Build(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty catalog")
	}
}

func TestDocumentText(t *testing.T) {
	r, err := catalog.New(catalog.Fields{
		ID:              "java",
		URL:             "https://example.com/view/java-8-new/",
		Description:     "Java test.",
		TestTypes:       []string{"Knowledge & Skills", "Simulations"},
		DurationMinutes: 18,
		RemoteTesting:   true,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	want := "Title: Java 8 New\n" +
		"Test Type: Knowledge & Skills, Simulations\n" +
		"Description: Java test.\n" +
		"Assessment Length: 18 minutes\n" +
		"Remote Testing Support: Yes\n" +
		"Adaptive Support: No\n" +
		"URL: https://example.com/view/java-8-new/"
	if got := DocumentText(r); got != want {
		t.Errorf("DocumentText =\n%s\nwant\n%s", got, want)
	}
}
