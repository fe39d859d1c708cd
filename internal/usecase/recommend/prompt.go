package recommend

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/assessrec/internal/domain/candidate"
	"github.com/kailas-cloud/assessrec/internal/domain/catalog"
)

//go:embed prompt.md
var promptTemplate string

// Prompt size defaults.
const (
	DefaultDescriptionChars = 300
	DefaultMaxQueryChars    = 4000
)

// promptCandidate is a retrieved match joined with its catalog record.
type promptCandidate struct {
	match  candidate.Match
	record catalog.Record
}

// buildPrompt renders the rerank prompt. Every candidate is listed with its
// id so the answer can be validated against the set.
func buildPrompt(query string, cands []promptCandidate, maxResults, descChars, queryChars int) string {
	var list strings.Builder
	for i, c := range cands {
		r := c.record
		fmt.Fprintf(&list, "%d. id: %s\n", i+1, r.ID())
		fmt.Fprintf(&list, "   name: %s\n", r.Name())
		if types := r.TestTypes(); len(types) > 0 {
			fmt.Fprintf(&list, "   test types: %s\n", strings.Join(types, ", "))
		}
		if r.DurationMinutes() > 0 {
			fmt.Fprintf(&list, "   duration: %d minutes\n", r.DurationMinutes())
		}
		if desc := truncateRunes(r.Description(), descChars); desc != "" {
			fmt.Fprintf(&list, "   description: %s\n", desc)
		}
		fmt.Fprintf(&list, "   similarity: %.4f\n", c.match.Score())
	}

	// Один проход: плейсхолдеры внутри запроса пользователя не раскрываются.
	replacer := strings.NewReplacer(
		"{{QUERY}}", truncateRunes(query, queryChars),
		"{{MAX_RESULTS}}", strconv.Itoa(maxResults),
		"{{CANDIDATES}}", strings.TrimRight(list.String(), "\n"),
	)
	return replacer.Replace(promptTemplate)
}

// truncateRunes cuts s to limit runes on a rune boundary; limit <= 0 keeps s.
func truncateRunes(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
