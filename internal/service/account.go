package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/plantdoctor/identity/internal/cache"
	"github.com/plantdoctor/identity/internal/config"
	"github.com/plantdoctor/identity/internal/domain"
	"github.com/plantdoctor/identity/internal/repository"
	"github.com/plantdoctor/identity/pkg/auth"
	"github.com/plantdoctor/identity/pkg/hash"
	"github.com/plantdoctor/identity/pkg/logger"
	"github.com/plantdoctor/identity/pkg/otp"
)

type accountService struct {
	userRepository repository.Users
	otpStore       cache.OTPStore
	dispatcher     OTPDispatcher
	hasher         hash.PinHasher
	tokenManager   auth.TokenManager
	otpGenerator   otp.Generator
	authConfig     config.AuthConfig
	now            func() time.Time
}

func newAccountService(userRepository repository.Users,
	otpStore cache.OTPStore,
	dispatcher OTPDispatcher,
	hasher hash.PinHasher,
	tokenManager auth.TokenManager,
	otpGenerator otp.Generator,
	authConfig config.AuthConfig,
) *accountService {
	return &accountService{
		userRepository: userRepository,
		otpStore:       otpStore,
		dispatcher:     dispatcher,
		hasher:         hasher,
		tokenManager:   tokenManager,
		otpGenerator:   otpGenerator,
		authConfig:     authConfig,
		now:            time.Now,
	}
}

func (s *accountService) SendSignupOTP(ctx context.Context, phone domain.PhoneIdentity) error {
	return s.issueOTP(ctx, phone.FullNumber(), domain.OTPPurposeSignup)
}

// VerifySignupOTP spends the signup code and issues a verification token
// bound to mobile and profile.
func (s *accountService) VerifySignupOTP(ctx context.Context, mobile string, code string, profile SignupProfile) (*auth.VerificationToken, error) {
	if !profile.Role.CanRegister() {
		return nil, ErrInvalidRole
	}

	if err := s.consumeOTP(ctx, mobile, code, domain.OTPPurposeSignup); err != nil {
		return nil, err
	}

	token, err := s.tokenManager.NewVerificationToken(mobile, profile.canonical())
	if err != nil {
		return nil, fmt.Errorf("issue verification token failed: %w", err)
	}

	return token, nil
}

// Signup creates the account proven by a verification token. The token only
// covers the profile it was issued for. Repeating the call with the token
// that created the account succeeds without changes.
func (s *accountService) Signup(ctx context.Context, input SignupInput) error {
	if !input.Role.CanRegister() {
		return ErrInvalidRole
	}

	if input.VerificationToken == "" {
		return ErrVerificationRequired
	}

	token, err := s.tokenManager.ParseVerificationToken(input.VerificationToken)
	if err != nil || token.Mobile != input.Mobile || !s.tokenManager.MatchProfile(token, input.canonical()) {
		return ErrVerificationRequired
	}

	existing, err := s.userRepository.GetByMobile(ctx, input.Mobile)
	switch {
	case err == nil:
		if existing.VerificationID == token.ID {
			logger.Info("signup replayed", zap.String("mobile", input.Mobile))
			return nil
		}
		return ErrUserAlreadyExist
	case !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("get user by mobile failed: %w", err)
	}

	pinHash, err := s.hasher.Hash(input.PIN)
	if err != nil {
		return fmt.Errorf("hash pin failed: %w", err)
	}

	userID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate user id failed: %w", err)
	}

	user := &domain.User{
		ID:             userID,
		Mobile:         input.Mobile,
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		BirthYear:      input.DateOfBirth.Year,
		BirthMonth:     input.DateOfBirth.Month,
		BirthDay:       input.DateOfBirth.Day,
		Role:           input.Role,
		PinHash:        pinHash,
		VerificationID: token.ID,
	}

	if err := s.userRepository.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEntry) {
			return ErrUserAlreadyExist
		}
		return fmt.Errorf("create user failed: %w", err)
	}

	logger.Info("user signed up", zap.String("user_id", userID.String()), zap.String("role", string(input.Role)))

	return nil
}

func (s *accountService) ForgotPIN(ctx context.Context, phone domain.PhoneIdentity) error {
	mobile := phone.FullNumber()
	if _, err := s.userRepository.GetByMobile(ctx, mobile); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("get user by mobile failed: %w", err)
	}

	return s.issueOTP(ctx, mobile, domain.OTPPurposePinReset)
}

func (s *accountService) ResetPIN(ctx context.Context, mobile string, code string, newPIN string) error {
	if err := s.consumeOTP(ctx, mobile, code, domain.OTPPurposePinReset); err != nil {
		return err
	}

	pinHash, err := s.hasher.Hash(newPIN)
	if err != nil {
		return fmt.Errorf("hash pin failed: %w", err)
	}

	if err := s.userRepository.UpdatePIN(ctx, mobile, pinHash); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update pin failed: %w", err)
	}

	logger.Info("pin reset", zap.String("mobile", mobile))

	return nil
}

func (s *accountService) Login(ctx context.Context, mobile string, pin string, role domain.Role) (*domain.User, error) {
	user, err := s.userRepository.GetByMobile(ctx, mobile)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user by mobile failed: %w", err)
	}

	if user.Role != role || !s.hasher.Compare(user.PinHash, pin) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *accountService) IsVerifiedExpert(ctx context.Context, mobile string) (bool, error) {
	user, err := s.userRepository.GetByMobile(ctx, mobile)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get user by mobile failed: %w", err)
	}

	return user.IsVerifiedExpert(), nil
}

// ApproveKYC records the admin decision for an expert account. Farmers are
// not subject to KYC.
func (s *accountService) ApproveKYC(ctx context.Context, mobile string, approved bool) error {
	user, err := s.userRepository.GetByMobile(ctx, mobile)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("get user by mobile failed: %w", err)
	}

	if user.Role != domain.RoleExpert {
		return ErrInvalidRole
	}

	if err := s.userRepository.SetKYCVerified(ctx, mobile, approved); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("set kyc verified failed: %w", err)
	}

	logger.Info("kyc verification updated", zap.String("mobile", mobile), zap.Bool("approved", approved))

	return nil
}

// issueOTP replaces any live challenge for the mobile and purpose.
func (s *accountService) issueOTP(ctx context.Context, mobile string, purpose domain.OTPPurpose) error {
	challenge := &domain.OTPChallenge{
		Mobile:    mobile,
		Purpose:   purpose,
		Code:      s.otpGenerator.Code(s.authConfig.OTPLength),
		ExpiresAt: s.now().Add(s.authConfig.OTPTTL),
	}

	if err := s.otpStore.Save(ctx, challenge); err != nil {
		return fmt.Errorf("save otp challenge failed: %w", err)
	}

	if err := s.dispatcher.Dispatch(ctx, mobile, challenge.Code, purpose); err != nil {
		logger.Error("otp dispatch failed", zap.String("mobile", mobile), zap.Error(err))
		if err := s.otpStore.Delete(ctx, purpose, mobile); err != nil {
			logger.Warn("drop undelivered otp failed", zap.Error(err))
		}
		return ErrOTPDispatchFailed
	}

	return nil
}

// consumeOTP spends one attempt against the live challenge.
func (s *accountService) consumeOTP(ctx context.Context, mobile string, code string, purpose domain.OTPPurpose) error {
	err := s.otpStore.Consume(ctx, purpose, mobile, code, s.authConfig.OTPMaxAttempts)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, cache.ErrCodeMismatch):
		return ErrInvalidOTP
	}

	return fmt.Errorf("consume otp challenge failed: %w", err)
}
