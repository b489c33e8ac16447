package otp

import (
	"github.com/xlzd/gotp"
)

const (
	secretLength = 32
	interval     = 30
)

// Generator produces numeric one-time codes.
type Generator interface {
	Code(digits int) string
}

// GOTPGenerator derives each code from a fresh random TOTP secret, so codes
// of consecutive requests are unrelated.
type GOTPGenerator struct{}

func NewGOTPGenerator() *GOTPGenerator {
	return &GOTPGenerator{}
}

func (g *GOTPGenerator) Code(digits int) string {
	return gotp.NewTOTP(gotp.RandomSecret(secretLength), digits, interval, nil).Now()
}

// StaticGenerator always returns the same code. Used by tests and by local
// setups without an SMS provider.
type StaticGenerator string

func (s StaticGenerator) Code(int) string {
	return string(s)
}
