package catalog

import "testing"

func TestNew_Valid(t *testing.T) {
	r, err := New(Fields{
		ID:              " java-8 ",
		Name:            "Java 8 (New)",
		URL:             "https://example.com/view/java-8-new/",
		TestTypes:       []string{"Knowledge & Skills", " ", "Simulations"},
		DurationMinutes: 18,
		RemoteTesting:   true,
		JobLevels:       []string{"Mid-Professional"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ID() != "java-8" {
		t.Errorf("expected trimmed id, got %q", r.ID())
	}
	if got := r.TestTypes(); len(got) != 2 || got[1] != "Simulations" {
		t.Errorf("expected blank test types dropped, got %v", got)
	}
	if !r.RemoteTesting() || r.AdaptiveIRT() {
		t.Errorf("unexpected flags remote=%v adaptive=%v", r.RemoteTesting(), r.AdaptiveIRT())
	}
}

func TestNew_Immutable(t *testing.T) {
	levels := []string{"Graduate"}
	r, err := New(Fields{ID: "a", Name: "A", JobLevels: levels})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	levels[0] = "Director"
	out := r.JobLevels()
	out[0] = "Executive"
	if r.JobLevels()[0] != "Graduate" {
		t.Errorf("record was mutated through a slice: %v", r.JobLevels())
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		f    Fields
	}{
		{"empty id", Fields{Name: "x"}},
		{"negative duration", Fields{ID: "a", Name: "x", DurationMinutes: -1}},
		{"no name and no url", Fields{ID: "a"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.f); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNew_NameFromURL(t *testing.T) {
	r, err := New(Fields{ID: "a", URL: "https://www.shl.com/solutions/products/product-catalog/view/core-java-entry-level-new/"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Name() != "Core Java Entry Level New" {
		t.Errorf("unexpected derived name %q", r.Name())
	}
}

func TestTitleFromURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"https://x.com/view/automata-fix-new/", "Automata Fix New"},
		{"/view/SQL_server", "Sql Server"},
		{"verify-numerical", "Verify Numerical"},
	}
	for _, tc := range tests {
		if got := TitleFromURL(tc.in); got != tc.want {
			t.Errorf("TitleFromURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
