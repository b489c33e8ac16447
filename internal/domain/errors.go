package domain

import (
	"errors"
	"fmt"
)

const MsgConnectionFailed = "Failed to connect to the server. Please try again."

// Server details the flows react to. They are matched verbatim.
const (
	DetailMobileAlreadyRegistered = "Mobile number already registered."
	DetailInvalidRole             = "Invalid role."
	DetailInvalidOTP              = "Invalid OTP."
	DetailMobileNotRegistered     = "Mobile number not registered."
	DetailInvalidCredentials      = "Invalid mobile number, PIN or role."
	DetailVerificationRequired    = "Mobile number is not verified."
)

var (
	ErrMobileAlreadyRegistered = errors.New("mobile number already registered")
	ErrInvalidRole             = errors.New("invalid role")
	ErrInvalidOTP              = errors.New("invalid otp")
	ErrNoSession               = errors.New("no active session")

	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrNotFound       = errors.New("not found")
	ErrNoRowsAffected = errors.New("no rows affected")
)

var detailSentinels = map[string]error{
	DetailMobileAlreadyRegistered: ErrMobileAlreadyRegistered,
	DetailInvalidRole:             ErrInvalidRole,
	DetailInvalidOTP:              ErrInvalidOTP,
}

// ValidationError is a local rejection: no network call was made.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// TransportError means no response was obtained from the identity service.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServiceRejection is a well-formed response indicating failure.
type ServiceRejection struct {
	Op         string
	StatusCode int
	Detail     string
	Fallback   string
}

func (e *ServiceRejection) Error() string {
	return fmt.Sprintf("%s: rejected with status %d: %s", e.Op, e.StatusCode, e.Message())
}

// Message is the server detail verbatim, or the operation fallback when the
// server sent none.
func (e *ServiceRejection) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Fallback
}

func (e *ServiceRejection) Is(target error) bool {
	sentinel, ok := detailSentinels[e.Detail]
	return ok && sentinel == target
}

// UserMessage turns any flow error into the text shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}

	var rejection *ServiceRejection
	if errors.As(err, &rejection) {
		return rejection.Message()
	}

	var terr *TransportError
	if errors.As(err, &terr) {
		return MsgConnectionFailed
	}

	if errors.Is(err, ErrNoSession) {
		return "Phone number not found. Please log in again."
	}

	return "An error occurred. Please try again."
}
