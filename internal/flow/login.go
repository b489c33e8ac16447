package flow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/plantdoctor/identity/internal/domain"
	"github.com/plantdoctor/identity/internal/session"
	"github.com/plantdoctor/identity/pkg/logger"
)

// LoginFlow authenticates with mobile and PIN and owns the session store
// writes.
type LoginFlow struct {
	identity IdentityService
	sessions session.Store
	now      func() time.Time

	mu       sync.Mutex
	inFlight bool
}

func NewLoginFlow(identity IdentityService, sessions session.Store) *LoginFlow {
	return &LoginFlow{identity: identity, sessions: sessions, now: time.Now}
}

// Login returns the service greeting and stores the session on success.
func (f *LoginFlow) Login(ctx context.Context, phone domain.PhoneIdentity, pin string, role domain.Role) (string, error) {
	role = domain.ParseRole(string(role))
	if phone.LocalNumber == "" || pin == "" || role == "" {
		return "", domain.NewValidationError("mobile", msgFillLoginFields)
	}
	if err := phone.Validate(); err != nil {
		return "", err
	}
	if !role.Valid() {
		return "", domain.NewValidationError("role", msgInvalidRole)
	}

	if err := f.begin(); err != nil {
		return "", err
	}
	defer f.end()

	message, err := f.identity.Login(ctx, phone, pin, role)
	if err != nil {
		logger.Warn("login failed", zap.String("mobile", phone.FullNumber()), zap.Error(err))
		return "", err
	}

	s := domain.Session{Mobile: phone.FullNumber(), Role: role, LoggedInAt: f.now().UTC()}
	if err := f.sessions.Set(ctx, s); err != nil {
		return "", fmt.Errorf("store session failed: %w", err)
	}
	logger.Info("logged in", zap.String("mobile", s.Mobile), zap.String("role", string(role)))

	return message, nil
}

func (f *LoginFlow) Logout(ctx context.Context) error {
	if err := f.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("clear session failed: %w", err)
	}
	logger.Info("logged out")
	return nil
}

// Current recovers the session after a restart.
func (f *LoginFlow) Current(ctx context.Context) (domain.Session, bool, error) {
	return f.sessions.Get(ctx)
}

// CheckVerifiedExpert reports whether the logged in expert passed KYC.
func (f *LoginFlow) CheckVerifiedExpert(ctx context.Context) (bool, error) {
	s, ok, err := f.sessions.Get(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, domain.ErrNoSession
	}

	if err := f.begin(); err != nil {
		return false, err
	}
	defer f.end()

	return f.identity.CheckVerifiedExpert(ctx, s.Mobile)
}

func (f *LoginFlow) begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight {
		return ErrRequestInFlight
	}
	f.inFlight = true
	return nil
}

func (f *LoginFlow) end() {
	f.mu.Lock()
	f.inFlight = false
	f.mu.Unlock()
}
