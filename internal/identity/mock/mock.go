package mock_identity

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/plantdoctor/identity/internal/domain"
	"github.com/plantdoctor/identity/internal/identity"
)

// Service is a testify mock of the identity API as the flows consume it.
type Service struct {
	mock.Mock
}

func (m *Service) SendOTP(ctx context.Context, phone domain.PhoneIdentity) error {
	args := m.Called(ctx, phone)

	return args.Error(0)
}

func (m *Service) VerifyOTP(ctx context.Context, phone domain.PhoneIdentity, code string, reg domain.PendingRegistration) (identity.Verification, error) {
	args := m.Called(ctx, phone, code, reg)

	return args.Get(0).(identity.Verification), args.Error(1)
}

func (m *Service) Signup(ctx context.Context, phone domain.PhoneIdentity, reg domain.PendingRegistration, token string) error {
	args := m.Called(ctx, phone, reg, token)

	return args.Error(0)
}

func (m *Service) ForgotPIN(ctx context.Context, phone domain.PhoneIdentity) error {
	args := m.Called(ctx, phone)

	return args.Error(0)
}

func (m *Service) ResetPIN(ctx context.Context, phone domain.PhoneIdentity, code, newPIN string) error {
	args := m.Called(ctx, phone, code, newPIN)

	return args.Error(0)
}

func (m *Service) Login(ctx context.Context, phone domain.PhoneIdentity, pin string, role domain.Role) (string, error) {
	args := m.Called(ctx, phone, pin, role)

	return args.String(0), args.Error(1)
}

func (m *Service) CheckVerifiedExpert(ctx context.Context, mobile string) (bool, error) {
	args := m.Called(ctx, mobile)

	return args.Bool(0), args.Error(1)
}
