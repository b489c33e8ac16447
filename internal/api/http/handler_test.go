package apiHttp

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/plantdoctor/identity/internal/cache"
	"github.com/plantdoctor/identity/internal/config"
	"github.com/plantdoctor/identity/internal/repository"
	"github.com/plantdoctor/identity/internal/service"
	"github.com/plantdoctor/identity/internal/worker"
	"github.com/plantdoctor/identity/pkg/auth"
	"github.com/plantdoctor/identity/pkg/hash"
	"github.com/plantdoctor/identity/pkg/otp"
	mock_sms "github.com/plantdoctor/identity/pkg/sms/mock"
)

const (
	testCode       = "482913"
	testAdminToken = "admin-secret"
)

func newRouter(t *testing.T) (*gin.Engine, *mock_sms.Sender) {
	t.Helper()

	cfg := &config.Config{
		Limiter: config.Limiter{RPS: 1000, Burst: 1000, TTL: time.Minute},
		Auth: config.AuthConfig{
			JWT:            config.JWTConfig{SigningKey: "secret", VerificationTokenTTL: time.Minute},
			OTPLength:      6,
			OTPTTL:         5 * time.Minute,
			OTPMaxAttempts: 5,
			AdminToken:     testAdminToken,
		},
	}

	tokens, err := auth.NewManager(cfg.Auth.JWT)
	require.NoError(t, err)

	sender := new(mock_sms.Sender)
	sender.On("Send", mock.Anything).Return(nil)

	services := service.NewServices(service.Deps{
		Config:       cfg,
		Hasher:       hash.NewBcryptHasher(bcrypt.MinCost),
		TokenManager: tokens,
		OtpGenerator: otp.StaticGenerator(testCode),
		OTPStore:     cache.NewMemoryOTPStore(),
		Dispatcher:   service.NewDirectDispatcher(worker.NewWorkers(worker.Deps{SMSSender: sender, Config: cfg})),
		Repos:        repository.NewMemoryRepositories(),
	})

	return NewHandlers(services, cfg).Init(cfg), sender
}

type response struct {
	Code int
	Body map[string]any
}

func call(t *testing.T, router http.Handler, method, path string, body any, header ...string) response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	out := response{Code: w.Code, Body: map[string]any{}}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out.Body))
	}
	return out
}

func profile(mobile, token string) map[string]any {
	return map[string]any{
		"firstName":         "Sita",
		"lastName":          "Rai",
		"dateOfBirth":       map[string]int{"year": 1990, "month": 5, "day": 17},
		"pin":               "1234",
		"role":              "expert",
		"mobile":            mobile,
		"verificationToken": token,
	}
}

func userData() map[string]any {
	return map[string]any{
		"firstName":   "Sita",
		"lastName":    "Rai",
		"dateOfBirth": map[string]int{"year": 1990, "month": 5, "day": 17},
		"pin":         "1234",
		"role":        "expert",
	}
}

func verifyBody(mobile, code string) map[string]any {
	return map[string]any{"mobile": mobile, "otp": code, "userData": userData()}
}

func register(t *testing.T, router http.Handler) {
	t.Helper()

	resp := call(t, router, http.MethodPost, "/api/v1/send-otp", map[string]string{"countryCode": "+977", "mobile": "9800000000"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, true, resp.Body["success"])

	resp = call(t, router, http.MethodPost, "/api/v1/verify-otp", verifyBody("+9779800000000", testCode))
	require.Equal(t, http.StatusOK, resp.Code)
	token, _ := resp.Body["verificationToken"].(string)
	require.NotEmpty(t, token)

	resp = call(t, router, http.MethodPost, "/api/v1/signup", profile("+9779800000000", token))
	require.Equal(t, http.StatusCreated, resp.Code)
}

func TestSignupEndpoints(t *testing.T) {
	router, sender := newRouter(t)
	register(t, router)

	sender.AssertNumberOfCalls(t, "Send", 1)

	resp := call(t, router, http.MethodPost, "/api/v1/login", map[string]string{"mobile": "+9779800000000", "pin": "1234", "role": "Expert"})
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Login successful.", resp.Body["message"])

	resp = call(t, router, http.MethodGet, "/api/v1/check-verified-expert/+9779800000000", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, false, resp.Body["success"])
}

func TestVerifyOTPFailureShape(t *testing.T) {
	router, _ := newRouter(t)

	resp := call(t, router, http.MethodPost, "/api/v1/verify-otp", verifyBody("+9779800000000", testCode))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, false, resp.Body["success"])
	assert.Equal(t, "Invalid OTP.", resp.Body["message"])

	resp = call(t, router, http.MethodPost, "/api/v1/verify-otp", verifyBody("+9779800000000", "12"))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Invalid OTP.", resp.Body["message"])
}

func TestVerifiedProfileBindsSignup(t *testing.T) {
	router, _ := newRouter(t)

	call(t, router, http.MethodPost, "/api/v1/send-otp", map[string]string{"countryCode": "+977", "mobile": "9800000000"})

	resp := call(t, router, http.MethodPost, "/api/v1/verify-otp", map[string]any{"mobile": "+9779800000000", "otp": testCode})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Please fill all fields", resp.Body["message"])

	body := verifyBody("+9779800000000", testCode)
	body["userData"].(map[string]any)["role"] = "admin"
	resp = call(t, router, http.MethodPost, "/api/v1/verify-otp", body)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Invalid role.", resp.Body["message"])

	resp = call(t, router, http.MethodPost, "/api/v1/verify-otp", verifyBody("+9779800000000", testCode))
	require.Equal(t, http.StatusOK, resp.Code)
	token, _ := resp.Body["verificationToken"].(string)

	other := profile("+9779800000000", token)
	other["pin"] = "9999"
	resp = call(t, router, http.MethodPost, "/api/v1/signup", other)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = call(t, router, http.MethodPost, "/api/v1/signup", profile("+9779800000000", token))
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = call(t, router, http.MethodPost, "/api/v1/signup", other)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = call(t, router, http.MethodPost, "/api/v1/login", map[string]string{"mobile": "+9779800000000", "pin": "1234", "role": "expert"})
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestSignupRejections(t *testing.T) {
	router, _ := newRouter(t)
	register(t, router)

	resp := call(t, router, http.MethodPost, "/api/v1/signup", profile("+9779800000000", "forged"))
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, "Mobile number is not verified.", resp.Body["detail"])

	body := profile("+9779800000000", "")
	body["dateOfBirth"] = map[string]int{"year": 2001, "month": 2, "day": 30}
	resp = call(t, router, http.MethodPost, "/api/v1/signup", body)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Please select a valid date of birth.", resp.Body["detail"])

	body = profile("+9779800000000", "")
	body["pin"] = "12"
	resp = call(t, router, http.MethodPost, "/api/v1/signup", body)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "PIN must be exactly 4 digits.", resp.Body["detail"])
	assert.NotEmpty(t, resp.Body["validation_errors"])

	call(t, router, http.MethodPost, "/api/v1/send-otp", map[string]string{"countryCode": "+977", "mobile": "9800000000"})
	resp = call(t, router, http.MethodPost, "/api/v1/verify-otp", verifyBody("+9779800000000", testCode))
	token, _ := resp.Body["verificationToken"].(string)

	resp = call(t, router, http.MethodPost, "/api/v1/signup", profile("+9779800000000", token))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Mobile number already registered.", resp.Body["detail"])

	body = profile("+9779811111111", "")
	body["role"] = "admin"
	resp = call(t, router, http.MethodPost, "/api/v1/signup", body)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Invalid role.", resp.Body["detail"])
}

func TestPINResetEndpoints(t *testing.T) {
	router, _ := newRouter(t)

	resp := call(t, router, http.MethodPost, "/api/v1/forgot-pin", map[string]string{"countryCode": "+977", "mobile": "9800000000"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "Mobile number not registered.", resp.Body["detail"])

	register(t, router)

	resp = call(t, router, http.MethodPost, "/api/v1/forgot-pin", map[string]string{"countryCode": "+977", "mobile": "9800000000"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = call(t, router, http.MethodPost, "/api/v1/verify-otp-pin-reset", map[string]string{"mobile": "+9779800000000", "otp": "000000", "new_pin": "4321"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Invalid OTP.", resp.Body["detail"])

	resp = call(t, router, http.MethodPost, "/api/v1/verify-otp-pin-reset", map[string]string{"mobile": "+9779800000000", "otp": testCode, "new_pin": "4321"})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = call(t, router, http.MethodPost, "/api/v1/login", map[string]string{"mobile": "+9779800000000", "pin": "1234", "role": "expert"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "Invalid mobile number, PIN or role.", resp.Body["detail"])

	resp = call(t, router, http.MethodPost, "/api/v1/login", map[string]string{"mobile": "+9779800000000", "pin": "4321", "role": "expert"})
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestKYCApproval(t *testing.T) {
	router, _ := newRouter(t)
	register(t, router)

	resp := call(t, router, http.MethodPatch, "/api/v1/kyc-verifications/+9779800000000", map[string]bool{"approved": true})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = call(t, router, http.MethodPatch, "/api/v1/kyc-verifications/+9779800000000", map[string]bool{"approved": true},
		"Authorization", "Bearer "+testAdminToken)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = call(t, router, http.MethodGet, "/api/v1/check-verified-expert/+9779800000000", nil)
	assert.Equal(t, true, resp.Body["success"])

	resp = call(t, router, http.MethodPatch, "/api/v1/kyc-verifications/+9779811111111", map[string]bool{"approved": true},
		"Authorization", "Bearer "+testAdminToken)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = call(t, router, http.MethodPatch, "/api/v1/kyc-verifications/+9779800000000", map[string]string{},
		"Authorization", "Bearer "+testAdminToken)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRequestIDEchoed(t *testing.T) {
	router, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
}
