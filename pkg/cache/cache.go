// Package cache stores encoded work graphs by key.
//
// A [Cache] is a plain byte store with per-entry expiry. Four backends are
// provided:
//
//   - [FileCache]: one file per entry under a local directory (CLI default)
//   - [RedisCache]: entries as Redis strings with native TTL
//   - [MongoCache]: entries as documents with a TTL index
//   - [NullCache]: stores nothing
//
// Keys are produced by a [Keyer] so the CLI and the HTTP API agree on the
// layout. Callers that need tenant isolation wrap a keyer in a [ScopedKeyer].
package cache

import (
	"context"
	"fmt"
	"time"
)

// Default entry lifetimes.
const (
	// TTLGraph applies to graphs stored under a caller-chosen name.
	TTLGraph = 30 * 24 * time.Hour

	// TTLPlan applies to graphs cached by the content of their plan file.
	TTLPlan = 7 * 24 * time.Hour
)

// Cache is a byte store with expiry. Implementations must be safe for
// concurrent use.
type Cache interface {
	// Get returns the entry for key. A missing or expired entry is reported
	// as a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// GraphKey returns the key for a graph stored under a chosen name.
	GraphKey(name string) string

	// PlanKey returns the key for the graph built from a plan file.
	PlanKey(source []byte, opts PlanKeyOpts) string
}

// PlanKeyOpts holds everything besides the plan source that changes the
// encoded bytes.
type PlanKeyOpts struct {
	FormatVersion int    `json:"format_version"`
	Payloads      string `json:"payloads,omitempty"`
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// GraphKey returns "graph:<name>".
func (DefaultKeyer) GraphKey(name string) string {
	return fmt.Sprintf("graph:%s", name)
}

// PlanKey returns "plan:<sha256>" over the source and options.
func (DefaultKeyer) PlanKey(source []byte, opts PlanKeyOpts) string {
	return hashKey("plan", Hash(source), opts)
}

// Backend returns a short name for c's storage backend, used in logs and
// metrics.
func Backend(c Cache) string {
	switch c.(type) {
	case *FileCache:
		return "file"
	case *RedisCache:
		return "redis"
	case *MongoCache:
		return "mongo"
	case *NullCache:
		return "none"
	default:
		return "custom"
	}
}
