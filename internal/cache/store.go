// Package cache holds the key-value store behind the export cache. Entries carry
// a TTL and may join named invalidation groups that are flushed together.
package cache

import (
	"context"
	"time"
)

// Store is the cache capability injected into services.
type Store interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores value under key for ttl and records key in every group.
	// A non-positive ttl stores without expiry.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration, groups ...string) error

	// Forget removes explicit keys. Missing keys are ignored.
	Forget(ctx context.Context, keys ...string) error

	// FlushGroup removes every key recorded in the given groups.
	FlushGroup(ctx context.Context, groups ...string) error

	Ping(ctx context.Context) error

	// Driver names the backend ("redis", "memory").
	Driver() string
}

// Invalidation groups shared by the export and tag caches.
const (
	GroupTranslations = "translations"
	GroupLocales      = "locales"
	GroupTags         = "tags"
)

// LocaleGroup is the per-locale group, e.g. "locale:en".
func LocaleGroup(code string) string {
	return "locale:" + code
}
