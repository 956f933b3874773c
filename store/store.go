// Package store defines the key-value substrate collcache persists into.
//
// A collection uses two kinds of keys:
//
//	<collection>       - a set of identifiers (the index)
//	<collection>:<id>  - one serialized record (an item key)
//
// Implementations MUST be byte-for-byte transparent for item values: Get and
// MGet return exactly the bytes previously passed to Set. No call is assumed
// to be atomic with any other; collcache tolerates partial failures.
package store

import (
	"context"
	"time"
)

// Store is the minimal set of primitives the collection engine speaks.
// Must be safe for concurrent use.
type Store interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// MGet fetches many values in one round-trip. The result has the same
	// length and order as keys; missing keys yield nil entries.
	MGet(ctx context.Context, keys ...string) ([][]byte, error)

	// Set stores value under key without expiry, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Del removes keys. Missing keys are not an error.
	Del(ctx context.Context, keys ...string) error

	// SAdd adds members to the set at key, creating it when needed.
	SAdd(ctx context.Context, key string, members ...string) error

	// SRem removes members from the set at key.
	SRem(ctx context.Context, key string, members ...string) error

	// SMembers returns all members of the set at key; empty when missing.
	SMembers(ctx context.Context, key string) ([]string, error)

	// Expire sets a TTL on key. ttl <= 0 is a no-op.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Close releases resources.
	Close(ctx context.Context) error
}
