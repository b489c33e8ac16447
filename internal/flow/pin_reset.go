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

type PinResetState int

const (
	PinResetIdle PinResetState = iota
	PinResetOTPRequested
	PinResetOTPSent
	PinResetVerifying
	PinResetDone
)

func (s PinResetState) String() string {
	switch s {
	case PinResetIdle:
		return "idle"
	case PinResetOTPRequested:
		return "otp_requested"
	case PinResetOTPSent:
		return "otp_sent"
	case PinResetVerifying:
		return "verifying"
	case PinResetDone:
		return "reset"
	}
	return "unknown"
}

// PinResetFlow lets a user who forgot the PIN set a new one after proving
// possession of the phone.
type PinResetFlow struct {
	identity IdentityService

	mu       sync.Mutex
	state    PinResetState
	inFlight bool
	phone    domain.PhoneIdentity
	otp      string
	newPIN   string
	loginPIN string
	lastErr  error
}

func NewPinResetFlow(identity IdentityService) *PinResetFlow {
	return &PinResetFlow{identity: identity, state: PinResetIdle}
}

func (f *PinResetFlow) State() PinResetState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *PinResetFlow) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight
}

func (f *PinResetFlow) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

func (f *PinResetFlow) Phone() domain.PhoneIdentity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phone
}

// Fields returns the OTP and new PIN as last typed by the user.
func (f *PinResetFlow) Fields() (otp, newPIN string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.otp, f.newPIN
}

// LoginPIN is the PIN to pre-fill on the login form after a successful reset.
func (f *PinResetFlow) LoginPIN() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginPIN
}

// RequestOTP asks the service to text a reset code. A failed first request
// returns to idle, a failed resend keeps the code already sent usable.
func (f *PinResetFlow) RequestOTP(ctx context.Context, phone domain.PhoneIdentity) error {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return ErrRequestInFlight
	}
	switch f.state {
	case PinResetIdle, PinResetOTPSent, PinResetDone:
	default:
		f.mu.Unlock()
		return invalidState("request otp", f.state)
	}
	if err := phone.Validate(); err != nil {
		f.lastErr = err
		f.mu.Unlock()
		return err
	}
	prev := f.state
	if prev == PinResetDone {
		prev = PinResetIdle
	}
	f.state = PinResetOTPRequested
	f.inFlight = true
	f.mu.Unlock()

	err := f.identity.ForgotPIN(ctx, phone)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false

	if err != nil {
		f.state = prev
		f.lastErr = err
		logger.Warn("pin reset otp request failed", zap.String("mobile", phone.FullNumber()), zap.Error(err))
		return err
	}

	f.phone = phone
	f.state = PinResetOTPSent
	f.lastErr = nil
	logger.Info("pin reset otp sent", zap.String("mobile", phone.FullNumber()))

	return nil
}

// Submit sends the OTP and the new PIN. The values are kept on failure so
// the user can correct them.
func (f *PinResetFlow) Submit(ctx context.Context, otp, newPIN string) error {
	otp, newPIN = strings.TrimSpace(otp), strings.TrimSpace(newPIN)

	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return ErrRequestInFlight
	}
	if f.state != PinResetOTPSent {
		f.mu.Unlock()
		return invalidState("submit pin reset", f.state)
	}

	f.otp, f.newPIN = otp, newPIN

	if verr := validateReset(otp, newPIN); verr != nil {
		f.lastErr = verr
		f.mu.Unlock()
		return verr
	}

	phone := f.phone
	f.state = PinResetVerifying
	f.inFlight = true
	f.mu.Unlock()

	err := f.identity.ResetPIN(ctx, phone, otp, newPIN)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false

	if err != nil {
		f.state = PinResetOTPSent
		f.lastErr = err
		logger.Warn("pin reset rejected", zap.String("mobile", phone.FullNumber()), zap.Error(err))
		return err
	}

	f.loginPIN = newPIN
	f.otp, f.newPIN = "", ""
	f.state = PinResetDone
	f.lastErr = nil
	logger.Info("pin reset", zap.String("mobile", phone.FullNumber()))

	return nil
}

func validateReset(otp, newPIN string) *domain.ValidationError {
	if otp == "" || newPIN == "" {
		return domain.NewValidationError("otp", msgOTPAndPIN)
	}
	v := validator.Validator()
	if err := v.Var(otp, "otp"); err != nil {
		return domain.NewValidationError("otp", msgInvalidOTP)
	}
	if err := v.Var(newPIN, "pin"); err != nil {
		return domain.NewValidationError("new_pin", msgNewPINInvalid)
	}
	return nil
}
