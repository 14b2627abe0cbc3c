package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Belphemur/DoubanRecommend/internal/apperrors"
)

const defaultRedisKeyPrefix = "douban:state:"

func init() {
	Register("redis", newRedisStore)
}

// redisStore keeps each value under its own Redis string key, without expiry.
type redisStore struct {
	client *redis.Client
	prefix string
}

func newRedisStore(cfg ProviderConfig) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultRedisKeyPrefix
	}
	return &redisStore{client: client, prefix: prefix}, nil
}

func (r *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.NewNotFoundError("storage key", key)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

func (r *redisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		// Redis reports maxmemory refusals as OOM errors.
		if strings.HasPrefix(err.Error(), "OOM") {
			return fmt.Errorf("redis set %s: %w", key, ErrQuotaExceeded)
		}
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *redisStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

func (r *redisStore) Close() error {
	return r.client.Close()
}
