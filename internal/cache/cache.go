// Package cache keeps recently proxied cover images so repeated card renders
// do not hit the catalog CDN again.
package cache

import (
	"context"
	"time"
)

// Entry is a cached upstream response.
type Entry struct {
	ContentType string    `json:"content_type"`
	Body        []byte    `json:"body"`
	StoredAt    time.Time `json:"stored_at"`
}

// Size returns the number of body bytes held by the entry.
func (e Entry) Size() int {
	return len(e.Body)
}

// Cache is a bounded key-value cache with LRU eviction and per-entry TTL.
// Failures of remote backends are logged and reported as misses; a cache must
// never make a request fail.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool)
	Set(ctx context.Context, key string, entry Entry)

	// Len returns the number of live entries.
	Len() int

	Close() error
}
