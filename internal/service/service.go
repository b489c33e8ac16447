package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/plantdoctor/identity/internal/cache"
	"github.com/plantdoctor/identity/internal/config"
	"github.com/plantdoctor/identity/internal/domain"
	"github.com/plantdoctor/identity/internal/repository"
	"github.com/plantdoctor/identity/pkg/auth"
	"github.com/plantdoctor/identity/pkg/hash"
	"github.com/plantdoctor/identity/pkg/otp"
)

type Services struct {
	Accounts Accounts
}

type Deps struct {
	Config       *config.Config
	Hasher       hash.PinHasher
	TokenManager auth.TokenManager
	OtpGenerator otp.Generator
	OTPStore     cache.OTPStore
	Dispatcher   OTPDispatcher
	Repos        *repository.Repositories
}

func NewServices(deps Deps) *Services {
	return &Services{
		Accounts: newAccountService(
			deps.Repos.Users,
			deps.OTPStore,
			deps.Dispatcher,
			deps.Hasher,
			deps.TokenManager,
			deps.OtpGenerator,
			deps.Config.Auth,
		),
	}
}

// SignupProfile is the registration a signup code is verified for. The
// verification token is only accepted for the same profile.
type SignupProfile struct {
	FirstName   string
	LastName    string
	DateOfBirth domain.DateOfBirth
	PIN         string
	Role        domain.Role
}

func (p SignupProfile) canonical() string {
	dob := fmt.Sprintf("%04d-%02d-%02d", p.DateOfBirth.Year, p.DateOfBirth.Month, p.DateOfBirth.Day)
	return strings.Join([]string{p.FirstName, p.LastName, dob, string(p.Role), p.PIN}, "\x1f")
}

type SignupInput struct {
	SignupProfile
	Mobile            string
	VerificationToken string
}

type Accounts interface {
	SendSignupOTP(ctx context.Context, phone domain.PhoneIdentity) error
	VerifySignupOTP(ctx context.Context, mobile string, code string, profile SignupProfile) (*auth.VerificationToken, error)
	Signup(ctx context.Context, input SignupInput) error
	ForgotPIN(ctx context.Context, phone domain.PhoneIdentity) error
	ResetPIN(ctx context.Context, mobile string, code string, newPIN string) error
	Login(ctx context.Context, mobile string, pin string, role domain.Role) (*domain.User, error)
	IsVerifiedExpert(ctx context.Context, mobile string) (bool, error)
	ApproveKYC(ctx context.Context, mobile string, approved bool) error
}
