package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wellnessbot/models"

	"github.com/go-redis/redis/v8"
)

const sessionKeyPrefix = "session:"

// RedisStore keeps sessions in Redis with a native TTL, so conversation
// state survives process restarts.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a Redis-backed session store. A zero ttl stores
// sessions without expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, phone string) (*models.Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+phone).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	var sess models.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Put(ctx context.Context, phone string, sess *models.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+phone, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *RedisStore) Reset(ctx context.Context, phone string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+phone).Err(); err != nil {
		return fmt.Errorf("failed to reset session: %w", err)
	}
	return nil
}
