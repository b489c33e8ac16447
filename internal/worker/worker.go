package worker

import (
	"context"

	"github.com/plantdoctor/identity/internal/config"
	"github.com/plantdoctor/identity/internal/domain"
	"github.com/plantdoctor/identity/pkg/sms"
)

type Workers struct {
	OTPSender OTPSender
}

type Deps struct {
	SMSSender sms.Sender
	Config    *config.Config
}

type OTPSender interface {
	SendOTP(ctx context.Context, mobile string, code string, purpose domain.OTPPurpose) error
}

func NewWorkers(deps Deps) *Workers {
	return &Workers{
		OTPSender: newOTPSender(deps.SMSSender, deps.Config.Auth),
	}
}
