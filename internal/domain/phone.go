package domain

import (
	"strings"

	"github.com/plantdoctor/identity/pkg/validator"
)

const DefaultCountryCode = "+977"

const (
	msgPhoneRequired = "Please enter your phone number."
	msgPhoneInvalid  = "Please enter a valid mobile number."
)

// PhoneIdentity is the number whose possession an OTP proves.
type PhoneIdentity struct {
	CountryCode string
	LocalNumber string
}

func NewPhoneIdentity(countryCode, localNumber string) PhoneIdentity {
	countryCode = strings.TrimSpace(countryCode)
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	return PhoneIdentity{
		CountryCode: countryCode,
		LocalNumber: strings.TrimSpace(localNumber),
	}
}

// FullNumber is the canonical identifier: country code and local number
// with no separator.
func (p PhoneIdentity) FullNumber() string {
	return p.CountryCode + p.LocalNumber
}

func (p PhoneIdentity) IsZero() bool {
	return p.LocalNumber == ""
}

// Validate applies one rule for every flow: a known country code and a local
// number of 7 to 12 digits.
func (p PhoneIdentity) Validate() error {
	if p.LocalNumber == "" {
		return NewValidationError("mobile", msgPhoneRequired)
	}
	if !validator.IsCountryCode(p.CountryCode) {
		return NewValidationError("countryCode", msgPhoneInvalid)
	}
	if err := validator.Validator().Var(p.LocalNumber, "localnumber"); err != nil {
		return NewValidationError("mobile", msgPhoneInvalid)
	}
	return nil
}
