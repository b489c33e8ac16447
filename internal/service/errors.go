package service

import "errors"

var (
	ErrUserAlreadyExist     = errors.New("user already exist")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidOTP           = errors.New("invalid otp")
	ErrInvalidRole          = errors.New("invalid role")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrVerificationRequired = errors.New("mobile number is not verified")
	ErrOTPDispatchFailed    = errors.New("otp dispatch failed")
)
