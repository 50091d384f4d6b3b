package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps one browser session's values in a Redis hash keyed by
// the browser's session id. Every write refreshes the TTL.
type RedisStorage struct {
	client    redis.Cmdable
	sessionID string
	ttl       time.Duration
}

// NewRedisStorage returns the storage for sessionID.
func NewRedisStorage(client redis.Cmdable, sessionID string, ttl time.Duration) *RedisStorage {
	return &RedisStorage{client: client, sessionID: sessionID, ttl: ttl}
}

func (s *RedisStorage) key() string {
	return "recruit:session:" + s.sessionID
}

func (s *RedisStorage) Get(ctx context.Context, field string) (string, error) {
	value, err := s.client.HGet(ctx, s.key(), field).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis hget: %w", err)
	}
	return value, nil
}

func (s *RedisStorage) Set(ctx context.Context, field, value string) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key(), field, value)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

func (s *RedisStorage) Remove(ctx context.Context, field string) error {
	if err := s.client.HDel(ctx, s.key(), field).Err(); err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}
	return nil
}
