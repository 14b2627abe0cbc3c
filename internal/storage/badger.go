package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/Belphemur/DoubanRecommend/internal/apperrors"
)

func init() {
	Register("badger", newBadgerStore)
}

// badgerStore persists values in an embedded BadgerDB directory.
type badgerStore struct {
	db     *badger.DB
	prefix string
}

func newBadgerStore(cfg ProviderConfig) (Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("storage: badger provider requires a path")
	}
	opts := badger.DefaultOptions(cfg.Path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", cfg.Path, err)
	}
	return &badgerStore{db: db, prefix: cfg.KeyPrefix}, nil
}

func (b *badgerStore) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(b.prefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return apperrors.NewNotFoundError("storage key", key)
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *badgerStore) Set(_ context.Context, key string, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(b.prefix+key), value)
	})
	if errors.Is(err, badger.ErrTxnTooBig) {
		return ErrQuotaExceeded
	}
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (b *badgerStore) Delete(_ context.Context, key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(b.prefix + key))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete %s: %w", key, err)
		}
		return nil
	})
}

func (b *badgerStore) Close() error {
	return b.db.Close()
}
