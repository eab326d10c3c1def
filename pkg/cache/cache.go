// Package cache stores rendered canvas diagrams keyed by content hash.
//
// Rendering a snapshot through Graphviz is the only expensive operation in
// taskcanvas, and the output depends on nothing but the DOT source. Callers
// therefore key entries with [Key] and reuse them across requests or runs.
//
// Three backends implement [Cache]:
//
//   - [FileCache] keeps entries on disk for the CLI
//   - [RedisCache] shares entries between server instances
//   - [NullCache] disables caching
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is a byte store with per-entry expiry. A miss is reported through the
// boolean, not an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data; a ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Key returns "namespace:hash(data)", e.g. Key("svg", dot).
func Key(namespace string, data []byte) string {
	return namespace + ":" + Hash(data)
}
