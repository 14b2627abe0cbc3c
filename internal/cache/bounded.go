package cache

import (
	"context"

	"github.com/rs/zerolog"
)

// boundedCache drops entries whose body exceeds maxBytes instead of storing them.
type boundedCache struct {
	Cache
	maxBytes int
	logger   zerolog.Logger
}

func (b *boundedCache) Set(ctx context.Context, key string, entry Entry) {
	if entry.Size() > b.maxBytes {
		b.logger.Debug().Str("key", key).Int("size", entry.Size()).Int("max", b.maxBytes).Msg("Entry too large, not caching")
		return
	}
	b.Cache.Set(ctx, key, entry)
}
