package processor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/plantdoctor/identity/internal/queue/task"
	"github.com/plantdoctor/identity/internal/worker"
)

type sendOTPProcessor struct {
	workers *worker.Workers
}

func NewSendOTPProcessor(workers *worker.Workers) *sendOTPProcessor {
	return &sendOTPProcessor{
		workers: workers,
	}
}

func (p *sendOTPProcessor) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var data task.SendOTP
	if err := json.Unmarshal(t.Payload(), &data); err != nil {
		return fmt.Errorf("process send otp task json unmarshal failed: %w: %w", err, asynq.SkipRetry)
	}

	if err := p.workers.OTPSender.SendOTP(ctx, data.Mobile, data.Code, data.Purpose); err != nil {
		return fmt.Errorf("send otp failed: %w", err)
	}

	return nil
}
