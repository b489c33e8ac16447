package cache

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/plantdoctor/identity/internal/domain"
)

const (
	otpKeyPrefix = "identity:otp:"
	// consumeRetries bounds the optimistic transaction when concurrent
	// attempts race on the same challenge.
	consumeRetries = 50
)

// ErrCodeMismatch reports a wrong code for a live challenge. The attempt has
// been counted by the time it is returned.
var ErrCodeMismatch = errors.New("otp code mismatch")

// OTPStore keeps at most one live challenge per mobile number and purpose.
type OTPStore interface {
	Save(ctx context.Context, challenge *domain.OTPChallenge) error
	Get(ctx context.Context, purpose domain.OTPPurpose, mobile string) (*domain.OTPChallenge, error)
	Delete(ctx context.Context, purpose domain.OTPPurpose, mobile string) error
	// Consume checks code against the live challenge in one atomic step. A
	// match deletes the challenge. A miss counts an attempt and deletes the
	// challenge once maxAttempts is reached. It returns domain.ErrNotFound
	// when no live challenge exists and ErrCodeMismatch on a miss.
	Consume(ctx context.Context, purpose domain.OTPPurpose, mobile string, code string, maxAttempts int) error
}

func otpKey(purpose domain.OTPPurpose, mobile string) string {
	return otpKeyPrefix + string(purpose) + ":" + mobile
}

// settle applies one attempt to challenge and reports whether the code
// matched and whether the challenge is spent.
func settle(challenge *domain.OTPChallenge, code string, maxAttempts int) (matched bool, spent bool) {
	if subtle.ConstantTimeCompare([]byte(challenge.Code), []byte(code)) == 1 {
		return true, true
	}

	challenge.Attempts++
	return false, maxAttempts > 0 && challenge.Attempts >= maxAttempts
}

type redisOTPStore struct {
	rdb redis.UniversalClient
	now func() time.Time
}

func NewRedisOTPStore(rdb redis.UniversalClient) OTPStore {
	return &redisOTPStore{rdb: rdb, now: time.Now}
}

func (s *redisOTPStore) Save(ctx context.Context, challenge *domain.OTPChallenge) error {
	const op = "cache.otp.Save"

	ttl := challenge.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return s.Delete(ctx, challenge.Purpose, challenge.Mobile)
	}

	raw, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", op, err)
	}

	if err := s.rdb.Set(ctx, otpKey(challenge.Purpose, challenge.Mobile), raw, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *redisOTPStore) Get(ctx context.Context, purpose domain.OTPPurpose, mobile string) (*domain.OTPChallenge, error) {
	const op = "cache.otp.Get"

	raw, err := s.rdb.Get(ctx, otpKey(purpose, mobile)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var challenge domain.OTPChallenge
	if err := json.Unmarshal(raw, &challenge); err != nil {
		return nil, fmt.Errorf("%s: unmarshal: %w", op, err)
	}

	return &challenge, nil
}

func (s *redisOTPStore) Delete(ctx context.Context, purpose domain.OTPPurpose, mobile string) error {
	const op = "cache.otp.Delete"

	if err := s.rdb.Del(ctx, otpKey(purpose, mobile)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *redisOTPStore) Consume(ctx context.Context, purpose domain.OTPPurpose, mobile string, code string, maxAttempts int) error {
	const op = "cache.otp.Consume"

	key := otpKey(purpose, mobile)
	for i := 0; i < consumeRetries; i++ {
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			return s.consume(ctx, tx, key, code, maxAttempts)
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, ErrCodeMismatch) {
			return fmt.Errorf("%s: %w", op, err)
		}
		return err
	}

	return fmt.Errorf("%s: %w", op, redis.TxFailedErr)
}

// consume runs inside WATCH on key, so the write fails with TxFailedErr if
// another attempt changed the challenge first.
func (s *redisOTPStore) consume(ctx context.Context, tx *redis.Tx, key string, code string, maxAttempts int) error {
	raw, err := tx.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ErrNotFound
		}
		return err
	}

	var challenge domain.OTPChallenge
	if err := json.Unmarshal(raw, &challenge); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	now := s.now()
	expired := challenge.Expired(now)

	var matched, spent bool
	if expired {
		spent = true
	} else {
		matched, spent = settle(&challenge, code, maxAttempts)
	}

	if !spent {
		if raw, err = json.Marshal(&challenge); err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
	}

	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if spent {
			pipe.Del(ctx, key)
		} else {
			pipe.Set(ctx, key, raw, challenge.ExpiresAt.Sub(now))
		}
		return nil
	})
	if err != nil {
		return err
	}

	switch {
	case expired:
		return domain.ErrNotFound
	case !matched:
		return ErrCodeMismatch
	}

	return nil
}

type memoryOTPStore struct {
	mu         sync.Mutex
	challenges map[string]domain.OTPChallenge
	now        func() time.Time
}

func NewMemoryOTPStore() OTPStore {
	return &memoryOTPStore{
		challenges: make(map[string]domain.OTPChallenge),
		now:        time.Now,
	}
}

func (s *memoryOTPStore) Save(_ context.Context, challenge *domain.OTPChallenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.challenges[otpKey(challenge.Purpose, challenge.Mobile)] = *challenge
	return nil
}

func (s *memoryOTPStore) Get(_ context.Context, purpose domain.OTPPurpose, mobile string) (*domain.OTPChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := otpKey(purpose, mobile)
	challenge, ok := s.challenges[key]
	if !ok {
		return nil, domain.ErrNotFound
	}

	if challenge.Expired(s.now()) {
		delete(s.challenges, key)
		return nil, domain.ErrNotFound
	}

	return &challenge, nil
}

func (s *memoryOTPStore) Delete(_ context.Context, purpose domain.OTPPurpose, mobile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.challenges, otpKey(purpose, mobile))
	return nil
}

func (s *memoryOTPStore) Consume(_ context.Context, purpose domain.OTPPurpose, mobile string, code string, maxAttempts int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := otpKey(purpose, mobile)
	challenge, ok := s.challenges[key]
	if !ok {
		return domain.ErrNotFound
	}

	if challenge.Expired(s.now()) {
		delete(s.challenges, key)
		return domain.ErrNotFound
	}

	matched, spent := settle(&challenge, code, maxAttempts)
	if spent {
		delete(s.challenges, key)
	} else {
		s.challenges[key] = challenge
	}

	if !matched {
		return ErrCodeMismatch
	}

	return nil
}

// NewOTPStore picks the challenge store matching the cache type. rdb may be
// nil for the memory type.
func NewOTPStore(cacheType string, rdb redis.UniversalClient) (OTPStore, error) {
	switch cacheType {
	case TypeMemory, "":
		return NewMemoryOTPStore(), nil
	case RedisTypeSingle, RedisTypeCluster:
		if rdb == nil {
			return nil, errors.New("otp store: redis client is required")
		}
		return NewRedisOTPStore(rdb), nil
	}

	return nil, fmt.Errorf("otp store: unknown cache type %q", cacheType)
}
