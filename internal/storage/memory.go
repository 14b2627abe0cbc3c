package storage

import (
	"context"
	"sync"

	"github.com/Belphemur/DoubanRecommend/internal/apperrors"
)

func init() {
	Register("memory", newMemoryStore)
}

// memoryStore keeps values in a map. With a quota it behaves like browser
// localStorage: a Set that would exceed the quota fails and leaves the previous
// value in place.
type memoryStore struct {
	mu    sync.RWMutex
	data  map[string][]byte
	used  int
	quota int
}

func newMemoryStore(cfg ProviderConfig) (Store, error) {
	return &memoryStore{
		data:  make(map[string][]byte),
		quota: cfg.QuotaBytes,
	}, nil
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.data[key]
	if !ok {
		return nil, apperrors.NewNotFoundError("storage key", key)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	used := m.used - len(m.data[key]) + len(value)
	if m.quota > 0 && used > m.quota {
		return ErrQuotaExceeded
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored
	m.used = used
	return nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.used -= len(m.data[key])
	delete(m.data, key)
	return nil
}

func (m *memoryStore) Close() error {
	return nil
}
