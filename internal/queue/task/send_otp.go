package task

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/plantdoctor/identity/internal/domain"
)

const (
	SendOTPTaskName  = "sendOTPTask"
	SendOTPQueueName = "sendOTPQueue"
)

type SendOTP struct {
	Mobile  string            `json:"mobile"`
	Code    string            `json:"code"`
	Purpose domain.OTPPurpose `json:"purpose"`
}

func NewSendOTPTask(mobile string, code string, purpose domain.OTPPurpose) (*asynq.Task, error) {
	payload, err := json.Marshal(SendOTP{Mobile: mobile, Code: code, Purpose: purpose})
	if err != nil {
		return nil, fmt.Errorf("json data marshal failed: %w", err)
	}

	return asynq.NewTask(
		SendOTPTaskName,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue(SendOTPQueueName),
	), nil
}
