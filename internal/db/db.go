package db

import (
	"context"
	"time"
)

// Store is the key-value facade behind the shared query-embedding cache.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// SetWithTTL stores a value with an expiration; ttl <= 0 means no expiry.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
