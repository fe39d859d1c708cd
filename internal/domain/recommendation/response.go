package recommendation

import "github.com/kailas-cloud/assessrec/internal/domain/catalog"

// Source says which path produced the final ordering.
type Source string

const (
	// SourceGenerated means the generative model selected and ordered the items.
	SourceGenerated Source = "generated"
	// SourceFallback means generation failed and similarity ranking was used.
	SourceFallback Source = "fallback"
	// SourceSimilarity means no generator is configured.
	SourceSimilarity Source = "similarity"
)

// Item is one recommended catalog record.
type Item struct {
	Record    catalog.Record
	Score     float64
	Rationale string
}

// Response is the ordered recommendation list.
type Response struct {
	ID         string
	Items      []Item
	Source     Source
	Candidates int
}
