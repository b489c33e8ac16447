package v1

import (
	"errors"
	"net/http"

	"github.com/plantdoctor/identity/internal/domain"
	"github.com/plantdoctor/identity/internal/service"
)

const (
	MsgOTPSent         = "OTP sent successfully."
	MsgOTPVerified     = "OTP verified successfully."
	MsgAccountCreated  = "Account created successfully."
	MsgPINReset        = "PIN reset successfully."
	MsgLoginSuccessful = "Login successful."
	MsgKYCUpdated      = "KYC verification updated."

	MsgOTPSendFailed      = "Failed to send OTP."
	MsgInvalidRequestBody = "Invalid request body."
	MsgInternalError      = "Internal server error."
	MsgInvalidDateOfBirth = "Please select a valid date of birth."
)

// ErrorStruct is the failure body of the account endpoints.
type ErrorStruct struct {
	Detail string            `json:"detail"`
	Errors []ValidationError `json:"validation_errors,omitempty"`
} // @name ErrorStruct

// OTPStruct is the body of send-otp and verify-otp, which report failures
// with success=false.
type OTPStruct struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	VerificationToken string `json:"verificationToken,omitempty"`
} // @name OTPStruct

type ValidationError struct {
	FieldKey     string `json:"field_key"`
	ErrorMessage string `json:"error_message"`
}

type MessageStruct struct {
	Message string `json:"message"`
} // @name MessageStruct

// serviceError maps a service failure to its status and user facing text.
// ok is false for unexpected errors.
func serviceError(err error) (status int, message string, ok bool) {
	switch {
	case errors.Is(err, service.ErrUserAlreadyExist):
		return http.StatusBadRequest, domain.DetailMobileAlreadyRegistered, true
	case errors.Is(err, service.ErrInvalidRole):
		return http.StatusBadRequest, domain.DetailInvalidRole, true
	case errors.Is(err, service.ErrInvalidOTP):
		return http.StatusBadRequest, domain.DetailInvalidOTP, true
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, domain.DetailMobileNotRegistered, true
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, domain.DetailInvalidCredentials, true
	case errors.Is(err, service.ErrVerificationRequired):
		return http.StatusForbidden, domain.DetailVerificationRequired, true
	case errors.Is(err, service.ErrOTPDispatchFailed):
		return http.StatusBadGateway, MsgOTPSendFailed, true
	}

	return http.StatusInternalServerError, MsgInternalError, false
}
