// Package cache provides response caching for the GitHub API client.
//
// The [Cache] interface abstracts over storage backends so the client code
// doesn't care where cached bytes live:
//
//   - [FileCache]: entries as JSON files under a directory (default for CLI)
//   - [RedisCache]: entries in a Redis instance (shared/multi-host setups)
//   - [NullCache]: no-op, caching disabled
//
// Entries carry a TTL; expired entries are treated as misses and removed
// lazily on read. Keys should be namespaced by the caller (e.g.
// "github:user:octocat") to avoid collisions between endpoints.
package cache

import (
	"context"
	"time"
)

// Cache is the storage interface for cached API responses.
// Implementations must treat a missing key as (nil, false, nil), not an error.
type Cache interface {
	// Get retrieves the raw bytes stored under key.
	// The second return value reports whether a fresh entry was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key with the given time-to-live.
	// A ttl of 0 means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes the entry for key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the backend.
	Close() error
}
