package domain

import (
	"errors"
	"strings"
	"time"

	govalidator "github.com/go-playground/validator/v10"

	"github.com/plantdoctor/identity/pkg/validator"
)

type Role string

const (
	RoleExpert Role = "expert"
	RoleFarmer Role = "farmer"
	RoleAdmin  Role = "admin"
)

const minBirthYear = 1900

const (
	msgFillAllFields = "Please fill all fields"
	msgPinMismatch   = "PINs do not match or are invalid"
	msgInvalidRole   = "Please select a valid role."
	msgInvalidDOB    = "Please select a valid date of birth."
)

// ParseRole is case-insensitive, the login screen accepts "Farmer" as well.
func ParseRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

func (r Role) CanRegister() bool {
	return r == RoleExpert || r == RoleFarmer
}

func (r Role) Valid() bool {
	return r.CanRegister() || r == RoleAdmin
}

type DateOfBirth struct {
	Year  int `json:"year" validate:"required,min=1900"`
	Month int `json:"month" validate:"required,min=1,max=12"`
	Day   int `json:"day" validate:"required,min=1,max=31"`
}

// IsCalendarDate reports whether the date exists and is not in the future.
func (d DateOfBirth) IsCalendarDate(now time.Time) bool {
	if d.Year < minBirthYear || d.Year > now.Year() {
		return false
	}
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	if t.Year() != d.Year || int(t.Month()) != d.Month || t.Day() != d.Day {
		return false
	}
	return !t.After(now)
}

// ParseDateOfBirth reads a YYYY-MM-DD date. An empty string gives the zero
// date, which the form reports as a missing field.
func ParseDateOfBirth(s string) (DateOfBirth, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DateOfBirth{}, nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return DateOfBirth{}, NewValidationError("dateOfBirth", msgInvalidDOB)
	}

	return DateOfBirth{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
}

// RegistrationForm is what the user types on the signup screen.
type RegistrationForm struct {
	FirstName   string      `json:"firstName" validate:"required"`
	LastName    string      `json:"lastName" validate:"required"`
	DateOfBirth DateOfBirth `json:"dateOfBirth"`
	PIN         string      `json:"pin" validate:"required,pin"`
	ConfirmPIN  string      `json:"confirmPin" validate:"required,eqfield=PIN"`
	Role        Role        `json:"role" validate:"required,oneof=expert farmer"`
}

// PendingRegistration is the validated snapshot carried through OTP
// verification into signup.
type PendingRegistration struct {
	FirstName   string
	LastName    string
	DateOfBirth DateOfBirth
	PIN         string
	Role        Role
}

// Validate checks the form and returns the immutable registration snapshot.
func (f RegistrationForm) Validate() (PendingRegistration, error) {
	return f.validateAt(time.Now())
}

func (f RegistrationForm) validateAt(now time.Time) (PendingRegistration, error) {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Role = ParseRole(string(f.Role))

	if err := validator.Validator().Struct(f); err != nil {
		var verrs govalidator.ValidationErrors
		if !errors.As(err, &verrs) {
			return PendingRegistration{}, err
		}
		return PendingRegistration{}, formValidationError(verrs)
	}

	if !f.DateOfBirth.IsCalendarDate(now) {
		return PendingRegistration{}, NewValidationError("dateOfBirth", msgInvalidDOB)
	}

	return PendingRegistration{
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		DateOfBirth: f.DateOfBirth,
		PIN:         f.PIN,
		Role:        f.Role,
	}, nil
}

// formValidationError reports missing fields before anything else, the way
// the signup screen does.
func formValidationError(verrs govalidator.ValidationErrors) *ValidationError {
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return NewValidationError(fe.Field(), msgFillAllFields)
		}
	}

	fe := verrs[0]
	switch fe.Field() {
	case "pin", "confirmPin":
		return NewValidationError(fe.Field(), msgPinMismatch)
	case "role":
		return NewValidationError(fe.Field(), msgInvalidRole)
	default:
		return NewValidationError("dateOfBirth", msgInvalidDOB)
	}
}
