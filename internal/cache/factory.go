package cache

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ProviderConfig holds the configuration needed to create a cache instance.
type ProviderConfig struct {
	// Size is the maximum number of entries.
	Size int
	TTL  time.Duration

	// MaxEntryBytes rejects larger bodies on Set. Zero means unlimited.
	MaxEntryBytes int

	// OnEvict is called with the key of every entry dropped by the cache.
	OnEvict func(key string)

	Logger zerolog.Logger

	RedisAddress  string
	RedisPassword string
	RedisDB       int
	// KeyPrefix namespaces the two Redis keys backing the cache.
	KeyPrefix string

	// Group labels the cache metrics. When non-empty the cache is wrapped
	// with instrumentation.
	Group string
}

// Provider is a constructor function that creates a Cache from config.
type Provider func(cfg ProviderConfig) (Cache, error)

var (
	mu        sync.RWMutex
	providers = make(map[string]Provider)
)

// Register registers a cache provider under the given name.
// It panics if the name is already registered or the provider is nil.
func Register(name string, p Provider) {
	mu.Lock()
	defer mu.Unlock()

	if p == nil {
		panic("cache: Register provider is nil")
	}
	if _, exists := providers[name]; exists {
		panic(fmt.Sprintf("cache: provider %q already registered", name))
	}
	providers[name] = p
}

// New creates a Cache using the named provider. Size must be positive.
func New(name string, cfg ProviderConfig) (Cache, error) {
	mu.RLock()
	p, ok := providers[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("cache: unknown provider %q (registered: %v)", name, RegisteredProviders())
	}
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("cache: size must be positive, got %d", cfg.Size)
	}

	if cfg.Group != "" {
		group := cfg.Group
		next := cfg.OnEvict
		cfg.OnEvict = func(key string) {
			EvictionsTotal.WithLabelValues(group).Inc()
			if next != nil {
				next(key)
			}
		}
	}

	inner, err := p(cfg)
	if err != nil {
		return nil, err
	}

	var c Cache = inner
	if cfg.Group != "" {
		c = newInstrumentedCache(c, cfg.Group)
	}
	if cfg.MaxEntryBytes > 0 {
		c = &boundedCache{Cache: c, maxBytes: cfg.MaxEntryBytes, logger: cfg.Logger}
	}
	return c, nil
}

// RegisteredProviders returns a sorted list of registered provider names.
func RegisteredProviders() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
