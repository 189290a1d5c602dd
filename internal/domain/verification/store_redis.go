package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "vaxtrack:verification:"

// RedisStore shares results between server instances. Entries carry a key
// TTL equal to the retention window so Redis evicts them on its own. Each
// Get decodes a new Result.
type RedisStore struct {
	rdb goredis.Cmdable
	ttl time.Duration
}

func NewRedisStore(rdb goredis.Cmdable, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func redisKey(id string) string { return redisKeyPrefix + id }

func (s *RedisStore) Get(ctx context.Context, id string) (*Result, bool, error) {
	raw, err := s.rdb.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", id, err)
	}
	var r Result
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, false, fmt.Errorf("decode cached result %s: %w", id, err)
	}
	return &r, true, nil
}

func (s *RedisStore) Put(ctx context.Context, r *Result) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result %s: %w", r.VaccineID, err)
	}
	if err := s.rdb.Set(ctx, redisKey(r.VaccineID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.VaccineID, err)
	}
	return nil
}
