package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/plantdoctor/identity/internal/domain"
)

const keyPrefix = "identity:session:"

type RedisStore struct {
	rdb redis.UniversalClient
	key string
}

func NewRedisStore(rdb redis.UniversalClient, key string) *RedisStore {
	return &RedisStore{rdb: rdb, key: keyPrefix + key}
}

func (s *RedisStore) Get(ctx context.Context) (domain.Session, bool, error) {
	const op = "session.RedisStore.Get"

	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Session{}, false, nil
		}
		return domain.Session{}, false, fmt.Errorf("%s: get session failed: %w", op, err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return domain.Session{}, false, fmt.Errorf("%s: decode session failed: %w", op, err)
	}

	return session, true, nil
}

func (s *RedisStore) Set(ctx context.Context, session domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("session.RedisStore.Set: encode session failed: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("session.RedisStore.Set: set session failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("session.RedisStore.Clear: delete session failed: %w", err)
	}
	return nil
}
