package cache

import "context"

// instrumentedCache records hit, miss and write metrics for one group.
type instrumentedCache struct {
	inner Cache
	group string
}

func newInstrumentedCache(inner Cache, group string) *instrumentedCache {
	registerEntriesGauge(group, inner.Len)
	return &instrumentedCache{inner: inner, group: group}
}

func (c *instrumentedCache) Get(ctx context.Context, key string) (Entry, bool) {
	entry, ok := c.inner.Get(ctx, key)
	if ok {
		HitsTotal.WithLabelValues(c.group).Inc()
	} else {
		MissesTotal.WithLabelValues(c.group).Inc()
	}
	return entry, ok
}

func (c *instrumentedCache) Set(ctx context.Context, key string, entry Entry) {
	c.inner.Set(ctx, key, entry)
	StoredBytesTotal.WithLabelValues(c.group).Add(float64(entry.Size()))
}

func (c *instrumentedCache) Len() int {
	return c.inner.Len()
}

// Close unregisters the entries gauge and closes the wrapped cache.
func (c *instrumentedCache) Close() error {
	unregisterEntriesGauge(c.group)
	return c.inner.Close()
}
