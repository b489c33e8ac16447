package sms

import (
	"go.uber.org/zap"

	"github.com/plantdoctor/identity/pkg/logger"
)

// LogSender writes messages to the log instead of delivering them. Intended
// for local runs.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) Send(input SendInput) error {
	if err := input.Validate(); err != nil {
		return err
	}

	logger.Info("sms message", zap.String("to", input.To), zap.String("body", input.Body))

	return nil
}
