package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an account held by the reference identity server.
type User struct {
	ID             uuid.UUID `db:"id"`
	Mobile         string    `db:"mobile"`
	FirstName      string    `db:"first_name"`
	LastName       string    `db:"last_name"`
	BirthYear      int       `db:"birth_year"`
	BirthMonth     int       `db:"birth_month"`
	BirthDay       int       `db:"birth_day"`
	Role           Role      `db:"role"`
	PinHash        string    `db:"pin_hash"`
	VerificationID string    `db:"verification_id"`
	KYCVerified    bool      `db:"kyc_verified"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (u *User) DateOfBirth() DateOfBirth {
	return DateOfBirth{Year: u.BirthYear, Month: u.BirthMonth, Day: u.BirthDay}
}

func (u *User) IsVerifiedExpert() bool {
	return u.Role == RoleExpert && u.KYCVerified
}
