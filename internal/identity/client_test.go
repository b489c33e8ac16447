package identity

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantdoctor/identity/internal/domain"
)

var (
	phone = domain.NewPhoneIdentity("+977", "9800000000")
	reg   = domain.PendingRegistration{
		FirstName:   "Ram",
		LastName:    "Thapa",
		DateOfBirth: domain.DateOfBirth{Year: 1995, Month: 6, Day: 15},
		PIN:         "1234",
		Role:        domain.RoleFarmer,
	}
)

type recorded struct {
	method string
	path   string
	body   map[string]any
	header http.Header
}

func newTestClient(t *testing.T, status int, response string) (*Client, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.header = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &rec.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	return NewClientWithHTTP(srv.URL+"/api/v1/", srv.Client()), rec
}

func TestSendOTP(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK, `{"success":true}`)

	require.NoError(t, client.SendOTP(context.Background(), phone))
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/v1/send-otp", rec.path)
	assert.Equal(t, map[string]any{"countryCode": "+977", "mobile": "9800000000"}, rec.body)
	assert.NotEmpty(t, rec.header.Get(requestIDHeader))
	assert.Equal(t, "application/json", rec.header.Get("Content-Type"))
}

func TestSendOTPSuccessFalse(t *testing.T) {
	client, _ := newTestClient(t, http.StatusOK, `{"success":false,"message":"Too many requests."}`)

	err := client.SendOTP(context.Background(), phone)

	var rejection *domain.ServiceRejection
	require.True(t, errors.As(err, &rejection))
	assert.Equal(t, "Too many requests.", rejection.Message())
}

func TestVerifyOTP(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK, `{"success":true,"verificationToken":"tok"}`)

	v, err := client.VerifyOTP(context.Background(), phone, "482913", reg)
	require.NoError(t, err)
	assert.Equal(t, "tok", v.Token)

	assert.Equal(t, "/api/v1/verify-otp", rec.path)
	assert.Equal(t, "+9779800000000", rec.body["mobile"])
	assert.Equal(t, "482913", rec.body["otp"])
	assert.Equal(t, map[string]any{
		"firstName":   "Ram",
		"lastName":    "Thapa",
		"dateOfBirth": map[string]any{"year": float64(1995), "month": float64(6), "day": float64(15)},
		"pin":         "1234",
		"role":        "farmer",
	}, rec.body["userData"])
}

func TestVerifyOTPRejected(t *testing.T) {
	client, _ := newTestClient(t, http.StatusBadRequest, `{"success":false}`)

	_, err := client.VerifyOTP(context.Background(), phone, "000000", reg)

	var rejection *domain.ServiceRejection
	require.True(t, errors.As(err, &rejection))
	assert.Equal(t, http.StatusBadRequest, rejection.StatusCode)
	assert.Equal(t, "OTP verification failed.", rejection.Message())
}

func TestSignup(t *testing.T) {
	client, rec := newTestClient(t, http.StatusCreated, `{"message":"User registered successfully."}`)

	require.NoError(t, client.Signup(context.Background(), phone, reg, "tok"))
	assert.Equal(t, "/api/v1/signup", rec.path)
	assert.Equal(t, "+9779800000000", rec.body["mobile"])
	assert.Equal(t, "Ram", rec.body["firstName"])
	assert.Equal(t, "farmer", rec.body["role"])
	assert.Equal(t, "tok", rec.body["verificationToken"])
}

func TestSignupWithoutTokenOmitsField(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK, ``)

	require.NoError(t, client.Signup(context.Background(), phone, reg, ""))
	_, ok := rec.body["verificationToken"]
	assert.False(t, ok)
}

func TestSignupDuplicate(t *testing.T) {
	client, _ := newTestClient(t, http.StatusConflict, `{"detail":"Mobile number already registered."}`)

	err := client.Signup(context.Background(), phone, reg, "")
	assert.ErrorIs(t, err, domain.ErrMobileAlreadyRegistered)
	assert.Equal(t, "Mobile number already registered.", domain.UserMessage(err))
}

func TestSignupValidationListDetail(t *testing.T) {
	client, _ := newTestClient(t, http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","pin"],"msg":"field required"}]}`)

	err := client.Signup(context.Background(), phone, reg, "")
	assert.Equal(t, "Failed to create account.", domain.UserMessage(err))
}

func TestForgotPIN(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK, `{"message":"OTP sent."}`)

	require.NoError(t, client.ForgotPIN(context.Background(), phone))
	assert.Equal(t, "/api/v1/forgot-pin", rec.path)
	assert.Equal(t, map[string]any{"countryCode": "+977", "mobile": "9800000000"}, rec.body)
}

func TestResetPIN(t *testing.T) {
	client, rec := newTestClient(t, http.StatusBadRequest, `{"detail":"Invalid OTP."}`)

	err := client.ResetPIN(context.Background(), phone, "123456", "4321")
	assert.ErrorIs(t, err, domain.ErrInvalidOTP)
	assert.Equal(t, map[string]any{"mobile": "+9779800000000", "otp": "123456", "new_pin": "4321"}, rec.body)
}

func TestLogin(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK, `{"message":"Welcome back, Ram!"}`)

	msg, err := client.Login(context.Background(), phone, "1234", domain.RoleFarmer)
	require.NoError(t, err)
	assert.Equal(t, "Welcome back, Ram!", msg)
	assert.Equal(t, map[string]any{"mobile": "+9779800000000", "pin": "1234", "role": "farmer"}, rec.body)
}

func TestLoginRejectedFallback(t *testing.T) {
	client, _ := newTestClient(t, http.StatusInternalServerError, `<html>oops</html>`)

	_, err := client.Login(context.Background(), phone, "1234", domain.RoleFarmer)
	assert.Equal(t, "Login failed. Please try again.", domain.UserMessage(err))
}

func TestCheckVerifiedExpert(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK, `{"success":true}`)

	ok, err := client.CheckVerifiedExpert(context.Background(), "+9779800000000")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/api/v1/check-verified-expert/+9779800000000", rec.path)
	assert.Empty(t, rec.header.Get("Content-Type"))
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClientWithHTTP(url, http.DefaultClient)
	err := client.SendOTP(context.Background(), phone)

	var terr *domain.TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, OpSendOTP, terr.Op)
	assert.Equal(t, domain.MsgConnectionFailed, domain.UserMessage(err))
}
