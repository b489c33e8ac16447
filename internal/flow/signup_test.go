package flow

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/plantdoctor/identity/internal/domain"
	"github.com/plantdoctor/identity/internal/identity"
	mock_identity "github.com/plantdoctor/identity/internal/identity/mock"
)

var (
	ctx   = context.Background()
	phone = domain.NewPhoneIdentity("+977", "9800000000")
	form  = domain.RegistrationForm{
		FirstName:   "Ram",
		LastName:    "Thapa",
		DateOfBirth: domain.DateOfBirth{Year: 1995, Month: 6, Day: 15},
		PIN:         "1234",
		ConfirmPIN:  "1234",
		Role:        domain.RoleFarmer,
	}
	reg = domain.PendingRegistration{
		FirstName:   "Ram",
		LastName:    "Thapa",
		DateOfBirth: domain.DateOfBirth{Year: 1995, Month: 6, Day: 15},
		PIN:         "1234",
		Role:        domain.RoleFarmer,
	}
)

func otpSentFlow(t *testing.T, svc *mock_identity.Service) *SignupFlow {
	t.Helper()
	svc.On("SendOTP", mock.Anything, phone).Return(nil).Once()

	f := NewSignupFlow(svc)
	require.NoError(t, f.SubmitProfile(form))
	require.NoError(t, f.SendOTP(ctx, phone))
	require.Equal(t, SignupOTPSent, f.State())
	return f
}

func TestSignupSubmitProfileRejectsLocally(t *testing.T) {
	bad := []func(f *domain.RegistrationForm){
		func(f *domain.RegistrationForm) { f.FirstName = "" },
		func(f *domain.RegistrationForm) { f.LastName = "" },
		func(f *domain.RegistrationForm) { f.PIN, f.ConfirmPIN = "123", "123" },
		func(f *domain.RegistrationForm) { f.ConfirmPIN = "1235" },
		func(f *domain.RegistrationForm) { f.Role = "" },
	}

	for _, mutate := range bad {
		svc := &mock_identity.Service{}
		f := NewSignupFlow(svc)

		input := form
		mutate(&input)

		err := f.SubmitProfile(input)
		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, SignupCollectingProfile, f.State())
		_, ok := f.Registration()
		assert.False(t, ok)
		svc.AssertNotCalled(t, "SendOTP", mock.Anything, mock.Anything)
	}
}

func TestSignupSendOTPNeedsProfile(t *testing.T) {
	svc := &mock_identity.Service{}
	f := NewSignupFlow(svc)

	err := f.SendOTP(ctx, phone)
	assert.ErrorIs(t, err, ErrInvalidState)
	svc.AssertNotCalled(t, "SendOTP", mock.Anything, mock.Anything)
}

func TestSignupSendOTPRequiresNumber(t *testing.T) {
	svc := &mock_identity.Service{}
	f := NewSignupFlow(svc)
	require.NoError(t, f.SubmitProfile(form))

	err := f.SendOTP(ctx, domain.NewPhoneIdentity("+977", ""))
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, SignupAwaitingOTPRequest, f.State())
	svc.AssertNotCalled(t, "SendOTP", mock.Anything, mock.Anything)
}

func TestSignupSendOTPFailureKeepsState(t *testing.T) {
	svc := &mock_identity.Service{}
	svc.On("SendOTP", mock.Anything, phone).Return(&domain.TransportError{Op: identity.OpSendOTP, Err: errors.New("refused")}).Once()

	f := NewSignupFlow(svc)
	require.NoError(t, f.SubmitProfile(form))

	err := f.SendOTP(ctx, phone)
	require.Error(t, err)
	assert.Equal(t, SignupAwaitingOTPRequest, f.State())
	assert.Equal(t, domain.MsgConnectionFailed, domain.UserMessage(f.LastError()))
	assert.False(t, f.Busy())
	svc.AssertExpectations(t)
}

func TestSignupVerifyOTPLengthGuard(t *testing.T) {
	for _, code := range []string{"", "12345", "1234567", "12a456"} {
		svc := &mock_identity.Service{}
		f := otpSentFlow(t, svc)

		err := f.VerifyOTP(ctx, code)
		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr), code)
		assert.Equal(t, "Please enter a valid 6-digit OTP.", verr.Message)
		assert.Equal(t, SignupOTPSent, f.State())
		svc.AssertNotCalled(t, "VerifyOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestSignupScenarioSuccess(t *testing.T) {
	svc := &mock_identity.Service{}
	f := otpSentFlow(t, svc)

	svc.On("VerifyOTP", mock.Anything, phone, "482913", reg).Return(identity.Verification{Token: "tok"}, nil).Once()
	svc.On("Signup", mock.Anything, phone, reg, "tok").Return(nil).Once()

	require.NoError(t, f.VerifyOTP(ctx, "482913"))

	assert.Equal(t, SignupSignedUp, f.State())
	assert.False(t, f.Busy())
	assert.NoError(t, f.LastError())
	_, ok := f.Registration()
	assert.False(t, ok, "registration is dropped once the account exists")
	svc.AssertExpectations(t)

	assert.ErrorIs(t, f.VerifyOTP(ctx, "482913"), ErrInvalidState)
}

func TestSignupScenarioDuplicateMobile(t *testing.T) {
	svc := &mock_identity.Service{}
	f := otpSentFlow(t, svc)

	duplicate := &domain.ServiceRejection{
		Op:         identity.OpSignup,
		StatusCode: http.StatusConflict,
		Detail:     "Mobile number already registered.",
		Fallback:   "Failed to create account.",
	}
	svc.On("VerifyOTP", mock.Anything, phone, "482913", reg).Return(identity.Verification{}, nil).Once()
	svc.On("Signup", mock.Anything, phone, reg, "").Return(duplicate).Once()

	err := f.VerifyOTP(ctx, "482913")
	assert.ErrorIs(t, err, domain.ErrMobileAlreadyRegistered)
	assert.Equal(t, "Mobile number already registered.", domain.UserMessage(f.LastError()))
	assert.NotEqual(t, SignupSignedUp, f.State())
	assert.Equal(t, SignupPending, f.State())

	assert.ErrorIs(t, f.RetrySignup(ctx), ErrSignupNotResumable)
	svc.AssertExpectations(t)
}

func TestSignupVerifyRejectedReturnsToOTPSent(t *testing.T) {
	svc := &mock_identity.Service{}
	f := otpSentFlow(t, svc)

	rejected := &domain.ServiceRejection{Op: identity.OpVerifyOTP, StatusCode: http.StatusOK, Detail: "Invalid OTP."}
	svc.On("VerifyOTP", mock.Anything, phone, "111111", reg).Return(identity.Verification{}, rejected).Once()
	svc.On("VerifyOTP", mock.Anything, phone, "482913", reg).Return(identity.Verification{Token: "tok"}, nil).Once()
	svc.On("Signup", mock.Anything, phone, reg, "tok").Return(nil).Once()

	require.Error(t, f.VerifyOTP(ctx, "111111"))
	assert.Equal(t, SignupOTPSent, f.State())
	assert.Equal(t, "Invalid OTP.", domain.UserMessage(f.LastError()))

	require.NoError(t, f.VerifyOTP(ctx, "482913"))
	assert.Equal(t, SignupSignedUp, f.State())
	svc.AssertExpectations(t)
	svc.AssertNumberOfCalls(t, "Signup", 1)
}

func TestSignupResendKeepsRegistration(t *testing.T) {
	svc := &mock_identity.Service{}
	f := otpSentFlow(t, svc)

	svc.On("SendOTP", mock.Anything, phone).Return(nil).Once()
	require.NoError(t, f.SendOTP(ctx, phone))

	got, ok := f.Registration()
	require.True(t, ok)
	assert.Equal(t, reg, got)
	assert.Equal(t, SignupOTPSent, f.State())
	svc.AssertNumberOfCalls(t, "SendOTP", 2)
}

func TestSignupRetryAfterTransportFailure(t *testing.T) {
	svc := &mock_identity.Service{}
	f := otpSentFlow(t, svc)

	svc.On("VerifyOTP", mock.Anything, phone, "482913", reg).Return(identity.Verification{Token: "tok"}, nil).Once()
	svc.On("Signup", mock.Anything, phone, reg, "tok").Return(&domain.TransportError{Op: identity.OpSignup, Err: errors.New("reset by peer")}).Once()
	svc.On("Signup", mock.Anything, phone, reg, "tok").Return(nil).Once()

	require.Error(t, f.VerifyOTP(ctx, "482913"))
	assert.Equal(t, SignupPending, f.State())

	require.NoError(t, f.RetrySignup(ctx))
	assert.Equal(t, SignupSignedUp, f.State())
	svc.AssertNumberOfCalls(t, "VerifyOTP", 1)
	svc.AssertExpectations(t)
}

func TestSignupRejectsConcurrentActions(t *testing.T) {
	svc := &mock_identity.Service{}
	started := make(chan struct{})
	release := make(chan struct{})

	svc.On("SendOTP", mock.Anything, phone).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(nil).Once()

	f := NewSignupFlow(svc)
	require.NoError(t, f.SubmitProfile(form))

	done := make(chan error, 1)
	go func() { done <- f.SendOTP(ctx, phone) }()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("send otp did not start")
	}

	assert.True(t, f.Busy())
	assert.ErrorIs(t, f.SendOTP(ctx, phone), ErrRequestInFlight)
	assert.ErrorIs(t, f.SubmitProfile(form), ErrRequestInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, f.Busy())
	svc.AssertNumberOfCalls(t, "SendOTP", 1)
}
