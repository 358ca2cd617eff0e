package convo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gosuda/randevu/internal/domain"
)

// RedisStore persists sessions in Redis with TTL equal to the idle window,
// so expiry is enforced by the server rather than checked on load. Intended
// for deployments where the process restarts must not drop context.
type RedisStore struct {
	client      *redis.Client
	idleTTL     time.Duration
	maxMessages int
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, idleTTL time.Duration, maxMessages int) *RedisStore {
	return &RedisStore{
		client:      client,
		idleTTL:     idleTTL,
		maxMessages: maxMessages,
	}
}

func (s *RedisStore) Load(ctx context.Context, key Key) (*Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return &Session{Key: key}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("convo.RedisStore.Load: %w", err)
	}

	var messages []domain.Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		// A corrupt value is not worth failing the turn over; start fresh.
		return &Session{Key: key}, nil
	}

	return &Session{Key: key, Messages: messages}, nil
}

func (s *RedisStore) Save(ctx context.Context, key Key, messages []domain.Message) error {
	compacted := Trim(Compact(messages), s.maxMessages)

	raw, err := json.Marshal(compacted)
	if err != nil {
		return fmt.Errorf("convo.RedisStore.Save: marshal: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(key), raw, s.idleTTL).Err(); err != nil {
		return fmt.Errorf("convo.RedisStore.Save: %w", err)
	}
	return nil
}

func sessionKey(key Key) string {
	return "convo:" + key.TenantID.String() + ":" + key.UserID
}
