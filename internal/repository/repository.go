package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/plantdoctor/identity/internal/domain"
)

type Repositories struct {
	Users Users
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Users: newUserRepository(db),
	}
}

func NewMemoryRepositories() *Repositories {
	return &Repositories{
		Users: newMemoryUserRepository(),
	}
}

type Users interface {
	Create(ctx context.Context, user *domain.User) error
	GetByMobile(ctx context.Context, mobile string) (*domain.User, error)
	UpdatePIN(ctx context.Context, mobile string, pinHash string) error
	SetKYCVerified(ctx context.Context, mobile string, verified bool) error
}
