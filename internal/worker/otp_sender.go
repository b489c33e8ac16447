package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/plantdoctor/identity/internal/config"
	"github.com/plantdoctor/identity/internal/domain"
	"github.com/plantdoctor/identity/pkg/logger"
	"github.com/plantdoctor/identity/pkg/sms"
)

type otpSender struct {
	sender sms.Sender
	config config.AuthConfig
}

func newOTPSender(sender sms.Sender, config config.AuthConfig) *otpSender {
	return &otpSender{
		sender: sender,
		config: config,
	}
}

func (s *otpSender) SendOTP(ctx context.Context, mobile string, code string, purpose domain.OTPPurpose) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	input := sms.SendInput{To: mobile, Body: otpMessage(code, purpose, s.config)}
	if err := s.sender.Send(input); err != nil {
		return fmt.Errorf("send otp sms failed: %w", err)
	}

	logger.Debug("otp sms sent", zap.String("mobile", mobile), zap.String("purpose", string(purpose)))

	return nil
}

func otpMessage(code string, purpose domain.OTPPurpose, cfg config.AuthConfig) string {
	action := "verify your mobile number"
	if purpose == domain.OTPPurposePinReset {
		action = "reset your PIN"
	}

	return fmt.Sprintf("Your code to %s is %s. It expires in %d minutes.", action, code, int(cfg.OTPTTL.Minutes()))
}
