package service

import (
	"context"
	"fmt"

	"github.com/plantdoctor/identity/internal/domain"
	"github.com/plantdoctor/identity/internal/queue/client"
	"github.com/plantdoctor/identity/internal/queue/task"
	"github.com/plantdoctor/identity/internal/worker"
)

// OTPDispatcher hands an issued code over for delivery.
type OTPDispatcher interface {
	Dispatch(ctx context.Context, mobile string, code string, purpose domain.OTPPurpose) error
}

type directDispatcher struct {
	workers *worker.Workers
}

// NewDirectDispatcher delivers codes synchronously within the request.
func NewDirectDispatcher(workers *worker.Workers) OTPDispatcher {
	return &directDispatcher{workers: workers}
}

func (d *directDispatcher) Dispatch(ctx context.Context, mobile string, code string, purpose domain.OTPPurpose) error {
	return d.workers.OTPSender.SendOTP(ctx, mobile, code, purpose)
}

type queueDispatcher struct{}

// NewQueueDispatcher enqueues delivery as an asynq task using the client
// installed with client.SetClient.
func NewQueueDispatcher() OTPDispatcher {
	return &queueDispatcher{}
}

func (d *queueDispatcher) Dispatch(ctx context.Context, mobile string, code string, purpose domain.OTPPurpose) error {
	t, err := task.NewSendOTPTask(mobile, code, purpose)
	if err != nil {
		return fmt.Errorf("create send otp task failed: %w", err)
	}

	if _, err := client.Enqueue(ctx, t); err != nil {
		return fmt.Errorf("enqueue send otp task failed: %w", err)
	}

	return nil
}
