package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKeyValueStore backs the wizard cache with Redis. Session staleness is
// handled natively: every write refreshes the key TTL.
type RedisKeyValueStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisKeyValueStore(client *redis.Client, ttl time.Duration) *RedisKeyValueStore {
	return &RedisKeyValueStore{client: client, ttl: ttl}
}

func (s *RedisKeyValueStore) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, redisKey(sessionID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *RedisKeyValueStore) Set(ctx context.Context, sessionID, key, value string) error {
	return s.client.Set(ctx, redisKey(sessionID, key), value, s.ttl).Err()
}

func (s *RedisKeyValueStore) Delete(ctx context.Context, sessionID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	fullKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		fullKeys = append(fullKeys, redisKey(sessionID, key))
	}
	return s.client.Del(ctx, fullKeys...).Err()
}

func redisKey(sessionID, key string) string {
	return "onboarding:" + sessionID + ":" + key
}
