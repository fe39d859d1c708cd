// Package catalog loads the immutable assessment catalog produced offline.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/assessrec/internal/domain"
	domcat "github.com/kailas-cloud/assessrec/internal/domain/catalog"
)

// Store is the ordered, read-only catalog. It is built once at startup and
// shared by all requests without locking.
type Store struct {
	records []domcat.Record
	byID    map[string]int
}

// NewStore builds a store from records, rejecting duplicate identifiers.
func NewStore(records []domcat.Record) (*Store, error) {
	byID := make(map[string]int, len(records))
	for i, r := range records {
		if prev, ok := byID[r.ID()]; ok {
			return nil, fmt.Errorf("duplicate record id %q at positions %d and %d", r.ID(), prev, i)
		}
		byID[r.ID()] = i
	}
	return &Store{
		records: append([]domcat.Record(nil), records...),
		byID:    byID,
	}, nil
}

// Load reads a JSON array of catalog records from path.
// Any read, parse or validation failure is a startup failure.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: read catalog %s: %w", domain.ErrStartupFailure, path, err)
	}

	var dtos []recordDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("%w: parse catalog %s: %w", domain.ErrStartupFailure, path, err)
	}
	if len(dtos) == 0 {
		return nil, fmt.Errorf("%w: catalog %s is empty", domain.ErrStartupFailure, path)
	}

	records := make([]domcat.Record, 0, len(dtos))
	for i, d := range dtos {
		r, err := d.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%w: catalog %s entry %d: %w", domain.ErrStartupFailure, path, i, err)
		}
		records = append(records, r)
	}

	s, err := NewStore(records)
	if err != nil {
		return nil, fmt.Errorf("%w: catalog %s: %w", domain.ErrStartupFailure, path, err)
	}
	return s, nil
}

// Save writes records as a JSON array. Used by fixtures and tooling.
func Save(path string, records []domcat.Record) error {
	dtos := make([]recordDTO, len(records))
	for i, r := range records {
		dtos[i] = fromDomain(r)
	}
	data, err := json.MarshalIndent(dtos, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	if err := os.WriteFile(filepath.Clean(path), data, 0o600); err != nil {
		return fmt.Errorf("write catalog %s: %w", path, err)
	}
	return nil
}

// Get returns the record with the given identifier.
func (s *Store) Get(id string) (domcat.Record, bool) {
	i, ok := s.byID[id]
	if !ok {
		return domcat.Record{}, false
	}
	return s.records[i], true
}

// Contains reports whether id is in the catalog.
func (s *Store) Contains(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// Records returns the records in catalog order. The slice is a copy.
func (s *Store) Records() []domcat.Record {
	return append([]domcat.Record(nil), s.records...)
}

// Len returns the record count.
func (s *Store) Len() int { return len(s.records) }
