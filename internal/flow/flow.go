// Package flow holds the client-side state machines of the identity
// workflow: signup with OTP verification, PIN reset and login.
//
// Each flow instance allows one outstanding request at a time. The state
// mutex is released while the request runs so the UI can keep reading
// State() and Busy().
package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/plantdoctor/identity/internal/domain"
	"github.com/plantdoctor/identity/internal/identity"
)

var (
	ErrRequestInFlight    = errors.New("a request is already in progress")
	ErrInvalidState       = errors.New("action not allowed in current state")
	ErrSignupNotResumable = errors.New("signup cannot be retried without a new verification")
)

const (
	msgInvalidOTP      = "Please enter a valid 6-digit OTP."
	msgOTPAndPIN       = "Please enter OTP and new PIN."
	msgNewPINInvalid   = "PIN must be exactly 4 digits."
	msgFillLoginFields = "Please fill all the fields."
	msgInvalidRole     = "Please select a valid role."
)

// IdentityService is the part of the remote identity API the flows use.
// *identity.Client implements it.
type IdentityService interface {
	SendOTP(ctx context.Context, phone domain.PhoneIdentity) error
	VerifyOTP(ctx context.Context, phone domain.PhoneIdentity, code string, reg domain.PendingRegistration) (identity.Verification, error)
	Signup(ctx context.Context, phone domain.PhoneIdentity, reg domain.PendingRegistration, token string) error
	ForgotPIN(ctx context.Context, phone domain.PhoneIdentity) error
	ResetPIN(ctx context.Context, phone domain.PhoneIdentity, code, newPIN string) error
	Login(ctx context.Context, phone domain.PhoneIdentity, pin string, role domain.Role) (string, error)
	CheckVerifiedExpert(ctx context.Context, mobile string) (bool, error)
}

var _ IdentityService = (*identity.Client)(nil)

func invalidState(action string, state fmt.Stringer) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidState, action, state)
}
