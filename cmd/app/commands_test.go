package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/plantdoctor/identity/internal/domain"
	"github.com/plantdoctor/identity/internal/identity"
	mock_identity "github.com/plantdoctor/identity/internal/identity/mock"
	"github.com/plantdoctor/identity/internal/session"
)

var phone = domain.NewPhoneIdentity("+977", "9800000000")

func runApp(svc *mock_identity.Service, sessions session.Store, input string, args ...string) (int, string) {
	var out bytes.Buffer
	code := newApp(svc, sessions, strings.NewReader(input), &out).run(context.Background(), args)
	return code, out.String()
}

func TestUsage(t *testing.T) {
	code, out := runApp(&mock_identity.Service{}, session.NewMemoryStore(), "")
	assert.Equal(t, 2, code)
	assert.Contains(t, out, "usage: identity")

	code, _ = runApp(&mock_identity.Service{}, session.NewMemoryStore(), "", "register")
	assert.Equal(t, 2, code)
}

func TestSignupCommand(t *testing.T) {
	reg := domain.PendingRegistration{
		FirstName:   "Ram",
		LastName:    "Thapa",
		DateOfBirth: domain.DateOfBirth{Year: 1995, Month: 6, Day: 15},
		PIN:         "1234",
		Role:        domain.RoleFarmer,
	}

	svc := &mock_identity.Service{}
	svc.On("SendOTP", mock.Anything, phone).Return(nil).Twice()
	svc.On("VerifyOTP", mock.Anything, phone, "482913", reg).Return(identity.Verification{Token: "tok"}, nil).Once()
	svc.On("Signup", mock.Anything, phone, reg, "tok").Return(nil).Once()

	input := strings.Join([]string{
		"Ram", "Thapa", "1995-06-15", "1234", "1234", "Farmer",
		"", "9800000000",
		"",
		"482913",
	}, "\n") + "\n"

	code, out := runApp(svc, session.NewMemoryStore(), input, "signup")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "OTP sent again.")
	assert.Contains(t, out, "Account created. Please log in.")
	svc.AssertExpectations(t)
}

func TestSignupCommandRejectsProfileLocally(t *testing.T) {
	svc := &mock_identity.Service{}

	input := "Ram\nThapa\n1995-06-15\n1234\n4321\nfarmer\n"
	code, out := runApp(svc, session.NewMemoryStore(), input, "signup")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "PINs do not match or are invalid")
	svc.AssertNotCalled(t, "SendOTP", mock.Anything, mock.Anything)
}

func TestSignupCommandRejectsMalformedDate(t *testing.T) {
	svc := &mock_identity.Service{}

	input := "Ram\nThapa\n1995/06/15\n1234\n1234\nfarmer\n"
	code, out := runApp(svc, session.NewMemoryStore(), input, "signup")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Please select a valid date of birth.")
	assert.NotContains(t, out, "Please fill all fields")
	svc.AssertNotCalled(t, "SendOTP", mock.Anything, mock.Anything)
}

func TestSignupCommandInputClosed(t *testing.T) {
	code, _ := runApp(&mock_identity.Service{}, session.NewMemoryStore(), "Ram\n", "signup")
	assert.Equal(t, 1, code)
}

func TestResetPINCommand(t *testing.T) {
	svc := &mock_identity.Service{}
	svc.On("ForgotPIN", mock.Anything, phone).Return(nil).Once()
	svc.On("ResetPIN", mock.Anything, phone, "482913", "4321").Return(nil).Once()

	input := "+977\n9800000000\n482913\n12\n482913\n4321\n"
	code, out := runApp(svc, session.NewMemoryStore(), input, "reset-pin")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "PIN must be exactly 4 digits.")
	assert.Contains(t, out, "PIN reset successfully.")
	svc.AssertExpectations(t)
}

func TestLoginWhoamiLogout(t *testing.T) {
	sessions := session.NewMemoryStore()
	svc := &mock_identity.Service{}
	svc.On("Login", mock.Anything, phone, "1234", domain.RoleExpert).Return("Login successful.", nil).Once()
	svc.On("CheckVerifiedExpert", mock.Anything, "+9779800000000").Return(true, nil).Once()

	code, out := runApp(svc, sessions, "1234\n", "login", "-mobile", "9800000000", "-role", "Expert")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "Login successful.")

	code, out = runApp(svc, sessions, "", "whoami")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "+9779800000000 (expert)")
	assert.Contains(t, out, "Expert account verified.")

	code, out = runApp(svc, sessions, "", "logout")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Logged out.")

	code, out = runApp(svc, sessions, "", "whoami")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Not logged in.")
	svc.AssertExpectations(t)
}

func TestLoginCommandRejection(t *testing.T) {
	svc := &mock_identity.Service{}
	svc.On("Login", mock.Anything, phone, "9999", domain.RoleFarmer).
		Return("", &domain.ServiceRejection{Op: identity.OpLogin, StatusCode: 401, Detail: domain.DetailInvalidCredentials}).Once()

	code, out := runApp(svc, session.NewMemoryStore(), "9800000000\nfarmer\n9999\n", "login")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Invalid mobile number, PIN or role.")
}
