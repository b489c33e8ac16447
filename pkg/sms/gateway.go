package sms

import (
	"fmt"

	"github.com/go-gomail/gomail"
)

// GatewaySender delivers texts through an email-to-SMS gateway: the message
// goes to <digits>@<domain> over SMTP.
type GatewaySender struct {
	from   string
	domain string
	dialer *gomail.Dialer
}

func NewGatewaySender(host string, port int, from, pass, domain string) (*GatewaySender, error) {
	if host == "" || from == "" || domain == "" {
		return nil, fmt.Errorf("sms gateway: host, from and domain are required")
	}

	return &GatewaySender{
		from:   from,
		domain: domain,
		dialer: gomail.NewDialer(host, port, from, pass),
	}, nil
}

func (s *GatewaySender) Address(to string) string {
	return digits(to) + "@" + s.domain
}

func (s *GatewaySender) Send(input SendInput) error {
	if err := input.Validate(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", s.Address(input.To))
	msg.SetBody("text/plain", input.Body)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send sms via gateway: %w", err)
	}

	return nil
}
