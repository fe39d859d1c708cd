// Package memory implements db.KVStore as an in-process LRU.
package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kailas-cloud/assessrec/internal/db"
)

// DefaultSize is the entry limit when none is configured.
const DefaultSize = 1024

// Store is a size-bounded LRU with a single TTL for all entries.
// Per-call TTLs are not supported; SetWithTTL uses the store TTL.
type Store struct {
	cache *expirable.LRU[string, []byte]
}

// Compile-time check: Store implements db.KVStore.
var _ db.KVStore = (*Store)(nil)

// NewStore creates an LRU store. ttl <= 0 disables expiry.
func NewStore(size int, ttl time.Duration) (*Store, error) {
	if size < 0 {
		return nil, fmt.Errorf("cache size must be >= 0, got %d", size)
	}
	if size == 0 {
		size = DefaultSize
	}
	return &Store{cache: expirable.NewLRU[string, []byte](size, nil, ttl)}, nil
}

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

// Set stores a copy of value.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.cache.Add(key, append([]byte(nil), value...))
	return nil
}

// SetWithTTL stores a copy of value under the store-wide TTL.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, _ time.Duration) error {
	return s.Set(ctx, key, value)
}

// Len returns the number of cached entries.
func (s *Store) Len() int { return s.cache.Len() }

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }
