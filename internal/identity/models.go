package identity

import "encoding/json"

type sendOTPRequest struct {
	CountryCode string `json:"countryCode"`
	Mobile      string `json:"mobile"`
}

type dateOfBirth struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

type userData struct {
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	DateOfBirth dateOfBirth `json:"dateOfBirth"`
	PIN         string      `json:"pin"`
	Role        string      `json:"role"`
}

type verifyOTPRequest struct {
	Mobile   string   `json:"mobile"`
	OTP      string   `json:"otp"`
	UserData userData `json:"userData"`
}

type signupRequest struct {
	userData
	Mobile            string `json:"mobile"`
	VerificationToken string `json:"verificationToken,omitempty"`
}

type resetPINRequest struct {
	Mobile string `json:"mobile"`
	OTP    string `json:"otp"`
	NewPIN string `json:"new_pin"`
}

type loginRequest struct {
	Mobile string `json:"mobile"`
	PIN    string `json:"pin"`
	Role   string `json:"role"`
}

// envelope covers every response shape of the identity API.
type envelope struct {
	Success           *bool           `json:"success,omitempty"`
	Message           string          `json:"message,omitempty"`
	Detail            json.RawMessage `json:"detail,omitempty"`
	VerificationToken string          `json:"verificationToken,omitempty"`
}

// detail returns the human readable failure reason. Validation failures of
// some backends send a list under "detail", those are ignored.
func (e *envelope) detail() string {
	if len(e.Detail) > 0 {
		var s string
		if err := json.Unmarshal(e.Detail, &s); err == nil && s != "" {
			return s
		}
	}
	return e.Message
}

// Verification is the outcome of a successful verify-otp call.
type Verification struct {
	Token string
}
