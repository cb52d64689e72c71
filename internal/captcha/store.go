package captcha

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps challenge answers in Redis so verification happens
// server-side and survives API instance restarts. It implements
// base64Captcha.Store.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a store with the given challenge lifetime.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisStore{client: client, ttl: ttl}
}

func challengeKey(id string) string {
	return fmt.Sprintf("captcha:challenge:%s", id)
}

// Set stores the answer for a challenge id.
func (s *RedisStore) Set(id string, value string) error {
	if err := s.client.Set(context.Background(), challengeKey(id), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("captcha: store challenge: %w", err)
	}
	return nil
}

// Get returns the stored answer, or "" if the challenge expired or was
// already consumed. When clear is true the challenge is deleted, making
// every answer single-use.
func (s *RedisStore) Get(id string, clear bool) string {
	ctx := context.Background()
	key := challengeKey(id)
	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return ""
	}
	if clear {
		s.client.Del(ctx, key)
	}
	return value
}

// Verify compares answer to the stored value. Kept for base64Captcha.Store
// compatibility; the service uses Get directly for case-insensitive matching.
func (s *RedisStore) Verify(id, answer string, clear bool) bool {
	value := s.Get(id, clear)
	return value != "" && value == answer
}
