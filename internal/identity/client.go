package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/plantdoctor/identity/internal/config"
	"github.com/plantdoctor/identity/internal/domain"
	"github.com/plantdoctor/identity/pkg/logger"
)

const (
	OpSendOTP             = "send-otp"
	OpVerifyOTP           = "verify-otp"
	OpSignup              = "signup"
	OpForgotPIN           = "forgot-pin"
	OpResetPIN            = "verify-otp-pin-reset"
	OpLogin               = "login"
	OpCheckVerifiedExpert = "check-verified-expert"
)

var fallbacks = map[string]string{
	OpSendOTP:             "Failed to send OTP.",
	OpVerifyOTP:           "OTP verification failed.",
	OpSignup:              "Failed to create account.",
	OpForgotPIN:           "Failed to send OTP.",
	OpResetPIN:            "Invalid OTP.",
	OpLogin:               "Login failed. Please try again.",
	OpCheckVerifiedExpert: "Failed to verify your account. Please try again.",
}

const requestIDHeader = "X-Request-ID"

// Client talks to the remote identity API. It holds no state between calls
// and never retries: every failure goes back to the user.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.IdentityClient) *Client {
	return NewClientWithHTTP(cfg.BaseURL, &http.Client{Timeout: cfg.Timeout})
}

func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// SendOTP asks the service to text a signup code to the phone.
func (c *Client) SendOTP(ctx context.Context, phone domain.PhoneIdentity) error {
	req := sendOTPRequest{CountryCode: phone.CountryCode, Mobile: phone.LocalNumber}

	var resp envelope
	if err := c.do(ctx, OpSendOTP, http.MethodPost, "/send-otp", req, &resp); err != nil {
		return err
	}
	return requireSuccess(OpSendOTP, &resp)
}

// VerifyOTP proves possession of the phone for the given pending registration.
func (c *Client) VerifyOTP(ctx context.Context, phone domain.PhoneIdentity, code string, reg domain.PendingRegistration) (Verification, error) {
	req := verifyOTPRequest{
		Mobile:   phone.FullNumber(),
		OTP:      code,
		UserData: toUserData(reg),
	}

	var resp envelope
	if err := c.do(ctx, OpVerifyOTP, http.MethodPost, "/verify-otp", req, &resp); err != nil {
		return Verification{}, err
	}
	if err := requireSuccess(OpVerifyOTP, &resp); err != nil {
		return Verification{}, err
	}

	return Verification{Token: resp.VerificationToken}, nil
}

// Signup creates the account. token is the verification token returned by
// VerifyOTP, empty when the service did not issue one.
func (c *Client) Signup(ctx context.Context, phone domain.PhoneIdentity, reg domain.PendingRegistration, token string) error {
	req := signupRequest{
		userData:          toUserData(reg),
		Mobile:            phone.FullNumber(),
		VerificationToken: token,
	}
	return c.do(ctx, OpSignup, http.MethodPost, "/signup", req, nil)
}

func (c *Client) ForgotPIN(ctx context.Context, phone domain.PhoneIdentity) error {
	req := sendOTPRequest{CountryCode: phone.CountryCode, Mobile: phone.LocalNumber}
	return c.do(ctx, OpForgotPIN, http.MethodPost, "/forgot-pin", req, nil)
}

func (c *Client) ResetPIN(ctx context.Context, phone domain.PhoneIdentity, code, newPIN string) error {
	req := resetPINRequest{Mobile: phone.FullNumber(), OTP: code, NewPIN: newPIN}
	return c.do(ctx, OpResetPIN, http.MethodPost, "/verify-otp-pin-reset", req, nil)
}

// Login returns the greeting message of the service on success.
func (c *Client) Login(ctx context.Context, phone domain.PhoneIdentity, pin string, role domain.Role) (string, error) {
	req := loginRequest{Mobile: phone.FullNumber(), PIN: pin, Role: string(role)}

	var resp envelope
	if err := c.do(ctx, OpLogin, http.MethodPost, "/login", req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) CheckVerifiedExpert(ctx context.Context, mobile string) (bool, error) {
	var resp envelope
	if err := c.do(ctx, OpCheckVerifiedExpert, http.MethodGet, "/check-verified-expert/"+url.PathEscape(mobile), nil, &resp); err != nil {
		return false, err
	}
	return resp.Success != nil && *resp.Success, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errors.Wrapf(err, "%s: marshal request", op)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrapf(err, "%s: create request", op)
	}

	requestID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.Debug("identity request", zap.String("op", op), zap.String("request_id", requestID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("identity request failed", zap.String("op", op), zap.String("request_id", requestID), zap.Error(err))
		return &domain.TransportError{Op: op, Err: errors.Wrap(err, "do request")}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.TransportError{Op: op, Err: errors.Wrap(err, "read response")}
	}

	logger.Debug("identity response", zap.String("op", op), zap.String("request_id", requestID), zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure envelope
		_ = json.Unmarshal(raw, &failure)
		return &domain.ServiceRejection{
			Op:         op,
			StatusCode: resp.StatusCode,
			Detail:     failure.detail(),
			Fallback:   fallbacks[op],
		}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "%s: decode response", op)
	}

	return nil
}

// requireSuccess rejects 2xx bodies that carry success=false. Missing flags
// count as failure, the OTP endpoints always send one.
func requireSuccess(op string, resp *envelope) error {
	if resp.Success != nil && *resp.Success {
		return nil
	}
	return &domain.ServiceRejection{
		Op:         op,
		StatusCode: http.StatusOK,
		Detail:     resp.detail(),
		Fallback:   fallbacks[op],
	}
}

func toUserData(reg domain.PendingRegistration) userData {
	return userData{
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		DateOfBirth: dateOfBirth{
			Year:  reg.DateOfBirth.Year,
			Month: reg.DateOfBirth.Month,
			Day:   reg.DateOfBirth.Day,
		},
		PIN:  reg.PIN,
		Role: string(reg.Role),
	}
}
