package vectorindex

import (
	"fmt"

	"github.com/kailas-cloud/assessrec/internal/domain"
)

// Catalog is the part of the catalog store the consistency check needs.
type Catalog interface {
	Len() int
	Contains(id string) bool
}

// Verify checks the startup invariants: one vector per record, vector count
// equals record count, and a total, collision-free slot mapping.
func Verify(ix *Index, cat Catalog) error {
	if ix.Len() != cat.Len() {
		return fmt.Errorf("%w: index has %d vectors, catalog has %d records",
			domain.ErrStartupFailure, ix.Len(), cat.Len())
	}
	seen := make(map[string]int, ix.Len())
	for slot, id := range ix.ids {
		if prev, dup := seen[id]; dup {
			return fmt.Errorf("%w: record %q mapped by slots %d and %d",
				domain.ErrStartupFailure, id, prev, slot)
		}
		if !cat.Contains(id) {
			return fmt.Errorf("%w: slot %d maps to unknown record %q",
				domain.ErrStartupFailure, slot, id)
		}
		seen[id] = slot
	}
	return nil
}
