package domain

import "time"

type OTPPurpose string

const (
	OTPPurposeSignup   OTPPurpose = "signup"
	OTPPurposePinReset OTPPurpose = "pin_reset"
)

// OTPChallenge is the server-side record of an issued code.
type OTPChallenge struct {
	Mobile    string     `json:"mobile"`
	Purpose   OTPPurpose `json:"purpose"`
	Code      string     `json:"code"`
	Attempts  int        `json:"attempts"`
	ExpiresAt time.Time  `json:"expires_at"`
}

func (c *OTPChallenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
