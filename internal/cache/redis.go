package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultKeyPrefix = "douban:cover:"
	redisOpTimeout   = 2 * time.Second
)

func init() {
	Register("redis", newRedisCache)
}

// redisCache stores entries in Redis/Valkey with LRU eviction done server side.
//
// Two keys are used whatever the number of entries:
//
//   - {prefix}data: a hash of key to JSON-encoded Entry, with per-field TTL set
//     through HPEXPIRE (Redis 7.4+ / Valkey 8+).
//   - {prefix}lru: a sorted set of keys scored by last access in microseconds.
//
// Reads touch the score and writes evict the oldest keys atomically in Lua.
type redisCache struct {
	client  *redis.Client
	ttl     time.Duration
	maxSize int
	onEvict func(key string)
	logger  zerolog.Logger
	dataKey string
	lruKey  string
}

// KEYS[1] = data hash, KEYS[2] = LRU sorted set
// ARGV[1] = now (µs), ARGV[2] = key
var touchScript = redis.NewScript(`
local val = redis.call('HGET', KEYS[1], ARGV[2])
if val then
    redis.call('ZADD', KEYS[2], ARGV[1], ARGV[2])
else
    redis.call('ZREM', KEYS[2], ARGV[2])
end
return val
`)

// KEYS[1] = data hash, KEYS[2] = LRU sorted set
// ARGV[1] = encoded entry, ARGV[2] = now (µs), ARGV[3] = key,
// ARGV[4] = max entries, ARGV[5] = TTL (ms, 0 for none)
//
// Returns the evicted keys.
var storeScript = redis.NewScript(`
local key     = ARGV[3]
local maxSize = tonumber(ARGV[4])
local ttlMs   = tonumber(ARGV[5])

redis.call('HSET', KEYS[1], key, ARGV[1])
if ttlMs > 0 then
    redis.call('HPEXPIRE', KEYS[1], ttlMs, 'FIELDS', 1, key)
end
redis.call('ZADD', KEYS[2], ARGV[2], key)

local evicted = {}
local size = redis.call('ZCARD', KEYS[2])
while size > maxSize do
    local oldest = redis.call('ZPOPMIN', KEYS[2], 1)
    if #oldest == 0 then break end
    redis.call('HDEL', KEYS[1], oldest[1])
    table.insert(evicted, oldest[1])
    size = size - 1
end
return evicted
`)

func newRedisCache(cfg ProviderConfig) (Cache, error) {
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
		prefix = defaultKeyPrefix
	}
	return &redisCache{
		client:  client,
		ttl:     cfg.TTL,
		maxSize: cfg.Size,
		onEvict: cfg.OnEvict,
		logger:  cfg.Logger,
		dataKey: prefix + "data",
		lruKey:  prefix + "lru",
	}, nil
}

func (r *redisCache) keys() []string {
	return []string{r.dataKey, r.lruKey}
}

func (r *redisCache) Get(ctx context.Context, key string) (Entry, bool) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	now := strconv.FormatInt(time.Now().UnixMicro(), 10)
	raw, err := touchScript.Run(ctx, r.client, r.keys(), now, key).Text()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Error().Err(err).Str("key", key).Msg("Redis cache get failed")
		}
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("Dropping undecodable cache entry")
		return Entry{}, false
	}
	return entry, true
}

func (r *redisCache) Set(ctx context.Context, key string, entry Entry) {
	encoded, err := json.Marshal(entry)
	if err != nil {
		r.logger.Error().Err(err).Str("key", key).Msg("Failed to encode cache entry")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	evicted, err := storeScript.Run(ctx, r.client, r.keys(),
		encoded,
		strconv.FormatInt(time.Now().UnixMicro(), 10),
		key,
		strconv.Itoa(r.maxSize),
		strconv.FormatInt(r.ttl.Milliseconds(), 10),
	).StringSlice()
	if err != nil {
		r.logger.Error().Err(err).Str("key", key).Msg("Redis cache set failed")
		return
	}

	if r.onEvict != nil {
		for _, k := range evicted {
			r.onEvict(k)
		}
	}
}

func (r *redisCache) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	n, err := r.client.HLen(ctx, r.dataKey).Result()
	if err != nil {
		r.logger.Error().Err(err).Msg("Redis cache len failed")
		return 0
	}
	return int(n)
}

func (r *redisCache) Close() error {
	return r.client.Close()
}
