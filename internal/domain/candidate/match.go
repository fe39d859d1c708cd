// Package candidate holds retrieval hits prior to final selection.
package candidate

import "sort"

// Match is a catalog record retrieved for a query, with its similarity score
// and 1-based rank in the candidate set.
type Match struct {
	id    string
	score float64
	rank  int
}

// New creates a match. Rank is assigned by Rank.
func New(id string, score float64) Match {
	return Match{id: id, score: score}
}

// ID returns the catalog record identifier.
func (m Match) ID() string { return m.id }

// Score returns the similarity score (higher is closer).
func (m Match) Score() float64 { return m.score }

// Rank returns the 1-based position in the candidate set (0 if unranked).
func (m Match) Rank() int { return m.rank }

// Before reports whether a orders before b: higher score first,
// equal scores by ascending identifier.
func Before(a, b Match) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.id < b.id
}

// Rank sorts matches in place and assigns ranks 1..n.
func Rank(matches []Match) []Match {
	sort.SliceStable(matches, func(i, j int) bool { return Before(matches[i], matches[j]) })
	for i := range matches {
		matches[i].rank = i + 1
	}
	return matches
}

// Top returns at most n matches from an already ranked slice.
func Top(matches []Match, n int) []Match {
	if n < 0 {
		n = 0
	}
	if len(matches) > n {
		return matches[:n]
	}
	return matches
}
