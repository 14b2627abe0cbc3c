package storage

import (
	"fmt"
	"sort"
	"sync"
)

// ProviderConfig holds the configuration needed to open a Store.
type ProviderConfig struct {
	// Path is the on-disk directory for embedded backends (badger).
	Path string
	// QuotaBytes caps the total size of stored values for the memory backend. Zero means unlimited.
	QuotaBytes int
	// RedisAddress is the Redis/Valkey server address (e.g., "localhost:6379").
	RedisAddress  string
	RedisPassword string
	RedisDB       int
	// KeyPrefix namespaces keys on shared backends.
	KeyPrefix string
}

// Provider is a constructor function that opens a Store from config.
type Provider func(cfg ProviderConfig) (Store, error)

var (
	mu        sync.RWMutex
	providers = make(map[string]Provider)
)

// Register registers a storage provider under the given name.
// It panics if the name is already registered or the provider is nil.
func Register(name string, p Provider) {
	mu.Lock()
	defer mu.Unlock()
	if p == nil {
		panic("storage: Register provider is nil")
	}
	if _, exists := providers[name]; exists {
		panic(fmt.Sprintf("storage: provider %q already registered", name))
	}
	providers[name] = p
}

// Open creates a Store using the named provider.
func Open(name string, cfg ProviderConfig) (Store, error) {
	mu.RLock()
	p, ok := providers[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown provider %q (registered: %v)", name, RegisteredProviders())
	}
	return p(cfg)
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
