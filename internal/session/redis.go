// internal/session/redis.go
//
// Redis-backed session store.
//
// Context
//   One Redis hash per session id under "weft:sess:<id>".  HSET writes one
//   whole field atomically, so two tabs switching teams at once degrade to
//   last-write-wins without ever producing a torn value.  The TTL slides
//   forward on every write.
//
//------------------------------------------------------------------------------

package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "weft:sess:"

// RedisStore implements Store on a go-redis client.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps client.  A non-positive ttl defaults to 14 days,
// matching the session cookie lifetime.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Get implements Store.  Absent keys come back as ("", nil).
func (s *RedisStore) Get(ctx context.Context, sid, key string) (string, error) {
	val, err := s.client.HGet(ctx, redisKeyPrefix+sid, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

// Set implements Store and slides the session TTL.
func (s *RedisStore) Set(ctx context.Context, sid, key, value string) error {
	rk := redisKeyPrefix + sid
	if err := s.client.HSet(ctx, rk, key, value).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, rk, s.ttl).Err()
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, sid, key string) error {
	return s.client.HDel(ctx, redisKeyPrefix+sid, key).Err()
}
