// Package catalog defines the assessment record, the unit the engine recommends.
package catalog

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// Fields is the mutable input used to construct a Record.
type Fields struct {
	ID              string
	Name            string
	Description     string
	URL             string
	TestTypes       []string
	DurationMinutes int
	RemoteTesting   bool
	AdaptiveIRT     bool
	JobLevels       []string
}

// Record is one immutable catalog entry. Slices are copied in and out.
type Record struct {
	id          string
	name        string
	description string
	url         string
	testTypes   []string
	duration    int
	remote      bool
	adaptive    bool
	jobLevels   []string
}

// New validates fields and builds a Record.
// A missing name is derived from the URL slug.
func New(f Fields) (Record, error) {
	id := strings.TrimSpace(f.ID)
	if id == "" {
		return Record{}, fmt.Errorf("record id is required")
	}
	if f.DurationMinutes < 0 {
		return Record{}, fmt.Errorf("record %q: duration must be >= 0, got %d", id, f.DurationMinutes)
	}

	name := strings.TrimSpace(f.Name)
	if name == "" {
		name = TitleFromURL(f.URL)
	}
	if name == "" {
		return Record{}, fmt.Errorf("record %q: name is required (no name and no url slug)", id)
	}

	return Record{
		id:          id,
		name:        name,
		description: strings.TrimSpace(f.Description),
		url:         strings.TrimSpace(f.URL),
		testTypes:   cleanList(f.TestTypes),
		duration:    f.DurationMinutes,
		remote:      f.RemoteTesting,
		adaptive:    f.AdaptiveIRT,
		jobLevels:   cleanList(f.JobLevels),
	}, nil
}

// ID returns the stable catalog identifier.
func (r Record) ID() string { return r.id }

// Name returns the display name.
func (r Record) Name() string { return r.name }

// Description returns the description text.
func (r Record) Description() string { return r.description }

// URL returns the canonical URL.
func (r Record) URL() string { return r.url }

// TestTypes returns a copy of the test-type tags.
func (r Record) TestTypes() []string { return append([]string(nil), r.testTypes...) }

// DurationMinutes returns the assessment length in minutes (0 = unknown).
func (r Record) DurationMinutes() int { return r.duration }

// RemoteTesting reports remote-testing support.
func (r Record) RemoteTesting() bool { return r.remote }

// AdaptiveIRT reports adaptive/IRT support.
func (r Record) AdaptiveIRT() bool { return r.adaptive }

// JobLevels returns a copy of the applicable job levels.
func (r Record) JobLevels() []string { return append([]string(nil), r.jobLevels...) }

// TitleFromURL derives a display name from the last path segment:
// ".../view/java-8-new/" becomes "Java 8 New".
func TitleFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	path := raw
	if u, err := url.Parse(raw); err == nil {
		path = u.Path
	}
	path = strings.Trim(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}
	words := strings.FieldsFunc(path, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
