package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceRejectionMessage(t *testing.T) {
	withDetail := &ServiceRejection{Op: "signup", StatusCode: 409, Detail: DetailMobileAlreadyRegistered, Fallback: "Failed to create account."}
	assert.Equal(t, DetailMobileAlreadyRegistered, withDetail.Message())
	assert.True(t, errors.Is(withDetail, ErrMobileAlreadyRegistered))
	assert.False(t, errors.Is(withDetail, ErrInvalidRole))

	bare := &ServiceRejection{Op: "signup", StatusCode: 500, Fallback: "Failed to create account."}
	assert.Equal(t, "Failed to create account.", bare.Message())
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "Please enter a valid 6-digit OTP.", UserMessage(NewValidationError("otp", "Please enter a valid 6-digit OTP.")))
	assert.Equal(t, "Invalid role.", UserMessage(fmt.Errorf("wrap: %w", &ServiceRejection{Detail: DetailInvalidRole})))
	assert.Equal(t, MsgConnectionFailed, UserMessage(&TransportError{Op: "login", Err: errors.New("dial tcp: refused")}))
	assert.Equal(t, "Phone number not found. Please log in again.", UserMessage(ErrNoSession))
}
