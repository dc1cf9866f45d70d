package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

const defaultTTL = 14 * 24 * time.Hour

// RedisStore keeps sessions in Redis behind a circuit breaker: when Redis
// is down the breaker opens, Load degrades to "no session" (an empty cart)
// and writes are dropped instead of failing the request.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	cb     *gobreaker.CircuitBreaker[[]byte]
}

func NewRedisStore(client *redis.Client) *RedisStore {
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "session-redis",
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &RedisStore{
		client: client,
		ttl:    defaultTTL,
		cb:     cb,
	}
}

func (s *RedisStore) Load(ctx context.Context, id string) (map[string]json.RawMessage, error) {
	data, err := s.cb.Execute(func() ([]byte, error) {
		data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil // absent is not a store failure
		}
		return data, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	if data == nil {
		return nil, ErrSessionNotFound
	}

	var values map[string]json.RawMessage
	if e2 := json.Unmarshal(data, &values); e2 != nil {
		// corrupt session record behaves like a missing one
		return nil, ErrSessionNotFound
	}
	return values, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, values map[string]json.RawMessage) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}

	_, err = s.cb.Execute(func() ([]byte, error) {
		return nil, s.client.Set(ctx, sessionKey(id), data, s.ttl).Err()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil // best effort while the store is down
	}
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	_, err := s.cb.Execute(func() ([]byte, error) {
		return nil, s.client.Del(ctx, sessionKey(id)).Err()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}
