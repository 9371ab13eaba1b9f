package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bookshop/internal/domain"
)

const sessionKeyPrefix = "bookshop:session:"

// RedisSessionStore keeps sessions in Redis with TTL. Session state is
// stored as a JSON value keyed by the opaque token.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore builds a Redis-backed session store.
func NewRedisSessionStore(addr, password string, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		ttl: ttl,
	}
}

// Get resolves a token to its session state.
func (s *RedisSessionStore) Get(token string) (domain.Session, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	val, err := s.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if err == redis.Nil {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, err
	}
	var sess domain.Session
	if err := json.Unmarshal(val, &sess); err != nil {
		return domain.Session{}, false, fmt.Errorf("decode session: %w", err)
	}
	return sess, true, nil
}

// Save writes session state under the token, refreshing the TTL.
func (s *RedisSessionStore) Save(token string, sess domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return s.client.Set(ctx, sessionKeyPrefix+token, data, s.ttl).Err()
}

// Delete removes a token mapping.
func (s *RedisSessionStore) Delete(token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}
