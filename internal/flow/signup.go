package flow

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/plantdoctor/identity/internal/domain"
	"github.com/plantdoctor/identity/pkg/logger"
	"github.com/plantdoctor/identity/pkg/validator"
)

type SignupState int

const (
	SignupCollectingProfile SignupState = iota
	SignupAwaitingOTPRequest
	SignupOTPSent
	SignupVerifying
	// SignupPending means the OTP was accepted but the account was not
	// created. RetrySignup replays the signup with the same verification.
	SignupPending
	SignupSignedUp
)

func (s SignupState) String() string {
	switch s {
	case SignupCollectingProfile:
		return "collecting_profile"
	case SignupAwaitingOTPRequest:
		return "awaiting_otp_request"
	case SignupOTPSent:
		return "otp_sent"
	case SignupVerifying:
		return "verifying"
	case SignupPending:
		return "signup_pending"
	case SignupSignedUp:
		return "signed_up"
	}
	return "unknown"
}

// SignupFlow proves ownership of a phone number before the account is
// created. Signup never opens a session, the user logs in afterwards.
type SignupFlow struct {
	identity IdentityService

	mu       sync.Mutex
	state    SignupState
	inFlight bool
	reg      *domain.PendingRegistration
	phone    domain.PhoneIdentity
	token    string
	lastErr  error
}

func NewSignupFlow(identity IdentityService) *SignupFlow {
	return &SignupFlow{identity: identity, state: SignupCollectingProfile}
}

func (f *SignupFlow) State() SignupState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *SignupFlow) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight
}

// LastError is the error of the most recent failed action, nil after a
// success.
func (f *SignupFlow) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

func (f *SignupFlow) Registration() (domain.PendingRegistration, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reg == nil {
		return domain.PendingRegistration{}, false
	}
	return *f.reg, true
}

func (f *SignupFlow) Phone() domain.PhoneIdentity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phone
}

// SubmitProfile validates the signup form. The profile may be edited again
// until an OTP has been sent.
func (f *SignupFlow) SubmitProfile(form domain.RegistrationForm) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.inFlight {
		return ErrRequestInFlight
	}
	if f.state != SignupCollectingProfile && f.state != SignupAwaitingOTPRequest {
		return invalidState("submit profile", f.state)
	}

	reg, err := form.Validate()
	if err != nil {
		f.lastErr = err
		return err
	}

	f.reg = &reg
	f.state = SignupAwaitingOTPRequest
	f.lastErr = nil

	return nil
}

// SendOTP requests a code for phone. Calling it again resends a fresh code
// and leaves the pending registration untouched.
func (f *SignupFlow) SendOTP(ctx context.Context, phone domain.PhoneIdentity) error {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return ErrRequestInFlight
	}
	switch f.state {
	case SignupAwaitingOTPRequest, SignupOTPSent, SignupPending:
	default:
		f.mu.Unlock()
		return invalidState("send otp", f.state)
	}
	if err := phone.Validate(); err != nil {
		f.lastErr = err
		f.mu.Unlock()
		return err
	}
	f.inFlight = true
	f.mu.Unlock()

	err := f.identity.SendOTP(ctx, phone)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false

	if err != nil {
		f.lastErr = err
		logger.Warn("signup otp request failed", zap.String("state", f.state.String()), zap.Error(err))
		return err
	}

	f.phone = phone
	f.token = ""
	f.state = SignupOTPSent
	f.lastErr = nil
	logger.Info("signup otp sent", zap.String("mobile", phone.FullNumber()))

	return nil
}

// VerifyOTP submits the code together with the pending registration and, if
// the service accepts it, creates the account.
func (f *SignupFlow) VerifyOTP(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)

	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return ErrRequestInFlight
	}
	if f.state != SignupOTPSent {
		f.mu.Unlock()
		return invalidState("verify otp", f.state)
	}
	if err := validator.Validator().Var(code, "otp"); err != nil {
		verr := domain.NewValidationError("otp", msgInvalidOTP)
		f.lastErr = verr
		f.mu.Unlock()
		return verr
	}
	reg, phone := *f.reg, f.phone
	f.state = SignupVerifying
	f.inFlight = true
	f.mu.Unlock()

	verification, err := f.identity.VerifyOTP(ctx, phone, code, reg)
	if err != nil {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.inFlight = false
		f.state = SignupOTPSent
		f.lastErr = err
		logger.Warn("signup otp verification failed", zap.String("mobile", phone.FullNumber()), zap.Error(err))
		return err
	}

	f.mu.Lock()
	f.token = verification.Token
	f.mu.Unlock()

	return f.signup(ctx, phone, reg, verification.Token)
}

// RetrySignup replays account creation after the OTP was already accepted.
// It needs the verification token the service issued; without one a new OTP
// must be requested.
func (f *SignupFlow) RetrySignup(ctx context.Context) error {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return ErrRequestInFlight
	}
	if f.state != SignupPending {
		f.mu.Unlock()
		return invalidState("retry signup", f.state)
	}
	if f.token == "" {
		f.lastErr = ErrSignupNotResumable
		f.mu.Unlock()
		return ErrSignupNotResumable
	}
	reg, phone, token := *f.reg, f.phone, f.token
	f.state = SignupVerifying
	f.inFlight = true
	f.mu.Unlock()

	return f.signup(ctx, phone, reg, token)
}

// signup runs with inFlight set and the state at SignupVerifying.
func (f *SignupFlow) signup(ctx context.Context, phone domain.PhoneIdentity, reg domain.PendingRegistration, token string) error {
	err := f.identity.Signup(ctx, phone, reg, token)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false

	if err != nil {
		f.state = SignupPending
		f.lastErr = err
		logger.Error("signup failed after otp verification", zap.String("mobile", phone.FullNumber()), zap.Error(err))
		return err
	}

	f.state = SignupSignedUp
	f.reg = nil
	f.token = ""
	f.lastErr = nil
	logger.Info("account created", zap.String("mobile", phone.FullNumber()), zap.String("role", string(reg.Role)))

	return nil
}
