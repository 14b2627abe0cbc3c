// Package storage provides the durable key-value backend that holds the
// widget's persisted state: the per-category tag lists and the feature flag.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrQuotaExceeded is returned by Set when the backend refuses to grow.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Store is a synchronous key-value store with string keys and opaque values.
//
// Get returns an *apperrors.ErrNotFound when the key is absent.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// healthKey is written and removed by Ping.
const healthKey = "__health__"

// Ping checks that s can write, read back and delete a value.
func Ping(ctx context.Context, s Store) error {
	want := []byte(time.Now().UTC().Format(time.RFC3339Nano))
	if err := s.Set(ctx, healthKey, want); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	got, err := s.Get(ctx, healthKey)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	if !bytes.Equal(got, want) {
		return errors.New("read back a different value")
	}
	if err := s.Delete(ctx, healthKey); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}
