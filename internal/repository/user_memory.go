package repository

import (
	"context"
	"sync"
	"time"

	"github.com/plantdoctor/identity/internal/domain"
)

type memoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
	now   func() time.Time
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{
		users: make(map[string]domain.User),
		now:   time.Now,
	}
}

func (r *memoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Mobile]; ok {
		return domain.ErrDuplicateEntry
	}

	now := r.now()
	stored := *user
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.users[user.Mobile] = stored

	return nil
}

func (r *memoryUserRepository) GetByMobile(_ context.Context, mobile string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[mobile]
	if !ok {
		return nil, domain.ErrNotFound
	}

	return &user, nil
}

func (r *memoryUserRepository) UpdatePIN(_ context.Context, mobile string, pinHash string) error {
	return r.update(mobile, func(u *domain.User) { u.PinHash = pinHash })
}

func (r *memoryUserRepository) SetKYCVerified(_ context.Context, mobile string, verified bool) error {
	return r.update(mobile, func(u *domain.User) { u.KYCVerified = verified })
}

func (r *memoryUserRepository) update(mobile string, fn func(u *domain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[mobile]
	if !ok {
		return domain.ErrNotFound
	}

	fn(&user)
	user.UpdatedAt = r.now()
	r.users[mobile] = user

	return nil
}
