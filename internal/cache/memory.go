package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

func init() {
	Register("memory", newMemoryCache)
}

type memoryCache struct {
	entries *lru.LRU[string, Entry]
}

func newMemoryCache(cfg ProviderConfig) (Cache, error) {
	var onEvict lru.EvictCallback[string, Entry]
	if cfg.OnEvict != nil {
		onEvict = func(key string, _ Entry) {
			cfg.OnEvict(key)
		}
	}
	return &memoryCache{
		entries: lru.NewLRU[string, Entry](cfg.Size, onEvict, cfg.TTL),
	}, nil
}

func (m *memoryCache) Get(_ context.Context, key string) (Entry, bool) {
	return m.entries.Get(key)
}

func (m *memoryCache) Set(_ context.Context, key string, entry Entry) {
	body := make([]byte, len(entry.Body))
	copy(body, entry.Body)
	entry.Body = body
	m.entries.Add(key, entry)
}

func (m *memoryCache) Len() int {
	return m.entries.Len()
}

func (m *memoryCache) Close() error {
	return nil
}
