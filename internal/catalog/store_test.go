package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/assessrec/internal/domain"
	domcat "github.com/kailas-cloud/assessrec/internal/domain/catalog"
)

func mustRecord(t *testing.T, id, name string) domcat.Record {
	t.Helper()
	r, err := domcat.New(domcat.Fields{ID: id, Name: name, URL: "https://example.com/" + id + "/"})
	if err != nil {
		t.Fatalf("new record: %v", err)
	}
	return r
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestNewStore_DuplicateID(t *testing.T) {
	_, err := NewStore([]domcat.Record{mustRecord(t, "a", "A"), mustRecord(t, "a", "A2")})
	if err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestStore_GetAndOrder(t *testing.T) {
	s, err := NewStore([]domcat.Record{mustRecord(t, "b", "B"), mustRecord(t, "a", "A")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", s.Len())
	}
	if got := s.Records()[0].ID(); got != "b" {
		t.Errorf("expected catalog order preserved, first = %q", got)
	}
	r, ok := s.Get("a")
	if !ok || r.Name() != "A" {
		t.Errorf("Get(a) = %v, %v", r.Name(), ok)
	}
	if _, ok := s.Get("missing"); ok {
		t.Error("expected missing id not found")
	}
	if !s.Contains("b") || s.Contains("c") {
		t.Error("Contains mismatch")
	}
}

func TestLoad_FlexibleFields(t *testing.T) {
	path := writeFile(t, `[
	  {
	    "id": "java-8",
	    "url": "https://www.shl.com/products/product-catalog/view/java-8-new/",
	    "description": "Multi-choice test on Java 8.",
	    "test_type": ["Knowledge & Skills"],
	    "duration": "18 minutes",
	    "remote_support": "Yes",
	    "adaptive_support": "No",
	    "job_levels": "Mid-Professional, Professional Individual Contributor"
	  },
	  {
	    "url": "https://www.shl.com/products/product-catalog/view/opq32r/",
	    "name": "OPQ32r",
	    "test_type": "Personality & Behavior",
	    "duration": 25,
	    "remote_testing_support": true,
	    "adaptive_irt_support": 1
	  }
	]`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", s.Len())
	}

	java, ok := s.Get("java-8")
	if !ok {
		t.Fatal("java-8 not found")
	}
	if java.Name() != "Java 8 New" {
		t.Errorf("expected name from url slug, got %q", java.Name())
	}
	if java.DurationMinutes() != 18 {
		t.Errorf("expected duration 18, got %d", java.DurationMinutes())
	}
	if !java.RemoteTesting() || java.AdaptiveIRT() {
		t.Errorf("flags: remote=%v adaptive=%v", java.RemoteTesting(), java.AdaptiveIRT())
	}
	if len(java.JobLevels()) != 2 || java.JobLevels()[1] != "Professional Individual Contributor" {
		t.Errorf("job levels: %v", java.JobLevels())
	}

	opqID := "https://www.shl.com/products/product-catalog/view/opq32r/"
	opq, ok := s.Get(opqID)
	if !ok {
		t.Fatal("expected url to be used as id")
	}
	if len(opq.TestTypes()) != 1 || opq.TestTypes()[0] != "Personality & Behavior" {
		t.Errorf("test types: %v", opq.TestTypes())
	}
	if !opq.RemoteTesting() || !opq.AdaptiveIRT() {
		t.Errorf("flags: remote=%v adaptive=%v", opq.RemoteTesting(), opq.AdaptiveIRT())
	}
}

func TestLoad_StartupFailures(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") }},
		{"not json", func(t *testing.T) string { return writeFile(t, "{oops") }},
		{"empty array", func(t *testing.T) string { return writeFile(t, "[]") }},
		{"no id", func(t *testing.T) string { return writeFile(t, `[{"name":"x"}]`) }},
		{"duplicate", func(t *testing.T) string {
			return writeFile(t, `[{"id":"a","name":"A"},{"id":"a","name":"B"}]`)
		}},
		{"negative duration", func(t *testing.T) string {
			return writeFile(t, `[{"id":"a","name":"A","duration":-5}]`)
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(tc.path(t))
			if !errors.Is(err, domain.ErrStartupFailure) {
				t.Fatalf("expected ErrStartupFailure, got %v", err)
			}
		})
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	orig, err := domcat.New(domcat.Fields{
		ID:              "r1",
		Name:            "Numerical Reasoning",
		Description:     "Verify numerical ability.",
		URL:             "https://example.com/r1/",
		TestTypes:       []string{"Ability & Aptitude"},
		DurationMinutes: 17,
		RemoteTesting:   true,
		AdaptiveIRT:     true,
		JobLevels:       []string{"Graduate"},
	})
	if err != nil {
		t.Fatalf("new record: %v", err)
	}

	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := Save(path, []domcat.Record{orig}); err != nil {
		t.Fatalf("save: %v", err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, ok := s.Get("r1")
	if !ok {
		t.Fatal("r1 not found after reload")
	}
	if got.Name() != orig.Name() || got.DurationMinutes() != 17 || !got.AdaptiveIRT() || !got.RemoteTesting() {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.TestTypes()[0] != "Ability & Aptitude" || got.JobLevels()[0] != "Graduate" {
		t.Errorf("lists mismatch: %v %v", got.TestTypes(), got.JobLevels())
	}
}
