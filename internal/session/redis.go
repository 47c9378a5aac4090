package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/PrecedenceMarkets/lexgate/internal/model"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "lexgate:session:"

// RedisStore backs Store with redis for multi-node deployments. TTL is
// enforced by redis key expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, eoa string) (*model.Session, bool, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+normalizeKey(eoa)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, false, fmt.Errorf("corrupt session record: %w", err)
	}
	return &session, true, nil
}

func (s *RedisStore) Save(ctx context.Context, session *model.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	key := redisKeyPrefix + normalizeKey(session.EOAAddress)
	if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, eoa string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+normalizeKey(eoa)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
