package sms

import (
	"errors"
	"fmt"
	"strings"
)

type SendInput struct {
	To   string
	Body string
}

type Sender interface {
	Send(input SendInput) error
}

func (i *SendInput) Validate() error {
	if i.To == "" {
		return errors.New("empty to")
	}

	if i.Body == "" {
		return errors.New("empty body")
	}

	if digits(i.To) == "" {
		return fmt.Errorf("invalid recipient %q", i.To)
	}

	return nil
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
