package assessrec

import (
	domcat "github.com/kailas-cloud/assessrec/internal/domain/catalog"
	"github.com/kailas-cloud/assessrec/internal/domain/recommendation"
)

// Recommendation sources.
const (
	SourceGenerated  = string(recommendation.SourceGenerated)
	SourceFallback   = string(recommendation.SourceFallback)
	SourceSimilarity = string(recommendation.SourceSimilarity)
)

// Assessment is one catalog record.
type Assessment struct {
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

// Item is a recommended assessment with its ranking data.
type Item struct {
	Assessment
	// Score is the retrieval similarity of the record.
	Score float64
	// Rationale is the model's reason, empty unless Source is SourceGenerated.
	Rationale string
}

// Recommendation is an ordered list of assessments for one query.
type Recommendation struct {
	ID         string
	Items      []Item
	Source     string // SourceGenerated, SourceFallback or SourceSimilarity
	Candidates int
}

func assessmentFromRecord(r domcat.Record) Assessment {
	return Assessment{
		ID:              r.ID(),
		Name:            r.Name(),
		Description:     r.Description(),
		URL:             r.URL(),
		TestTypes:       r.TestTypes(),
		DurationMinutes: r.DurationMinutes(),
		RemoteTesting:   r.RemoteTesting(),
		AdaptiveIRT:     r.AdaptiveIRT(),
		JobLevels:       r.JobLevels(),
	}
}

func recommendationFromDomain(resp recommendation.Response) Recommendation {
	items := make([]Item, len(resp.Items))
	for i, it := range resp.Items {
		items[i] = Item{
			Assessment: assessmentFromRecord(it.Record),
			Score:      it.Score,
			Rationale:  it.Rationale,
		}
	}
	return Recommendation{
		ID:         resp.ID,
		Items:      items,
		Source:     string(resp.Source),
		Candidates: resp.Candidates,
	}
}
