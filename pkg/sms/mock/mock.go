package mock_sms

import (
	"github.com/plantdoctor/identity/pkg/sms"

	"github.com/stretchr/testify/mock"
)

type Sender struct {
	mock.Mock
}

func (m *Sender) Send(inp sms.SendInput) error {
	args := m.Called(inp)

	return args.Error(0)
}
