package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/plantdoctor/identity/internal/config"
	"github.com/plantdoctor/identity/internal/domain"
)

const (
	TypeMemory = "memory"
	TypeFile   = "file"
	TypeRedis  = "redis"
)

// Store persists the single session of this device. Only login and logout
// write it, every screen reads it.
type Store interface {
	Get(ctx context.Context) (domain.Session, bool, error)
	Set(ctx context.Context, s domain.Session) error
	Clear(ctx context.Context) error
}

// NewStore builds the store selected by cfg. rdb is only used by the redis
// store and may be nil otherwise.
func NewStore(cfg config.Session, rdb redis.UniversalClient) (Store, error) {
	switch cfg.Type {
	case TypeMemory:
		return NewMemoryStore(), nil
	case TypeFile:
		store, err := NewFileStore(cfg.FilePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case TypeRedis:
		if rdb == nil {
			return nil, errors.New("redis session store requires a redis client")
		}
		return NewRedisStore(rdb, cfg.Key), nil
	}

	return nil, fmt.Errorf("unknown session store type %q", cfg.Type)
}
