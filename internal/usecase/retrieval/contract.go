package retrieval

import "github.com/kailas-cloud/assessrec/internal/vectorindex"

// Index is the nearest-neighbour search the engine runs against.
type Index interface {
	Search(query []float32, k int) ([]vectorindex.Hit, error)
	Dimensions() int
	Len() int
	DistinctIDs() int
}

// Catalog reports whether a record id exists.
type Catalog interface {
	Contains(id string) bool
}
