package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/plantdoctor/identity/internal/domain"
	"github.com/plantdoctor/identity/internal/flow"
	"github.com/plantdoctor/identity/internal/session"
)

const usage = `usage: identity <command> [flags]

commands:
  signup      create an account, verifying the phone number by OTP
  reset-pin   reset a forgotten PIN by OTP
  login       log in and remember the session on this device
  logout      forget the session
  whoami      show the current session
`

var errInputClosed = errors.New("input closed")

type app struct {
	identity flow.IdentityService
	sessions session.Store
	in       *bufio.Scanner
	out      io.Writer
}

func newApp(identity flow.IdentityService, sessions session.Store, in io.Reader, out io.Writer) *app {
	return &app{
		identity: identity,
		sessions: sessions,
		in:       bufio.NewScanner(in),
		out:      out,
	}
}

func (a *app) run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "signup":
		err = a.signup(ctx)
	case "reset-pin":
		err = a.resetPIN(ctx)
	case "login":
		err = a.login(ctx, args[1:])
	case "logout":
		err = flow.NewLoginFlow(a.identity, a.sessions).Logout(ctx)
		if err == nil {
			fmt.Fprintln(a.out, "Logged out.")
		}
	case "whoami":
		err = a.whoami(ctx)
	default:
		fmt.Fprint(a.out, usage)
		return 2
	}

	if err != nil {
		if !errors.Is(err, errInputClosed) {
			fmt.Fprintln(a.out, domain.UserMessage(err))
		}
		return 1
	}
	return 0
}

func (a *app) ask(label string) (string, error) {
	fmt.Fprintf(a.out, "%s: ", label)
	if !a.in.Scan() {
		return "", errInputClosed
	}
	return strings.TrimSpace(a.in.Text()), nil
}

func (a *app) askPhone() (domain.PhoneIdentity, error) {
	code, err := a.ask(fmt.Sprintf("Country code [%s]", domain.DefaultCountryCode))
	if err != nil {
		return domain.PhoneIdentity{}, err
	}
	mobile, err := a.ask("Mobile number")
	if err != nil {
		return domain.PhoneIdentity{}, err
	}
	return domain.NewPhoneIdentity(code, mobile), nil
}

func (a *app) signup(ctx context.Context) error {
	var (
		form domain.RegistrationForm
		dob  string
		role string
	)
	for _, field := range []struct {
		label string
		dst   *string
	}{
		{"First name", &form.FirstName},
		{"Last name", &form.LastName},
		{"Date of birth (YYYY-MM-DD)", &dob},
		{"PIN (4 digits)", &form.PIN},
		{"Confirm PIN", &form.ConfirmPIN},
		{"Role (expert/farmer)", &role},
	} {
		v, err := a.ask(field.label)
		if err != nil {
			return err
		}
		*field.dst = v
	}
	form.Role = domain.ParseRole(role)

	var err error
	if form.DateOfBirth, err = domain.ParseDateOfBirth(dob); err != nil {
		return err
	}

	f := flow.NewSignupFlow(a.identity)
	if err := f.SubmitProfile(form); err != nil {
		return err
	}

	phone, err := a.askPhone()
	if err != nil {
		return err
	}
	if err := f.SendOTP(ctx, phone); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "OTP sent to %s.\n", phone.FullNumber())

	for {
		code, err := a.ask("OTP (blank to resend)")
		if err != nil {
			return err
		}

		if code == "" {
			err = f.SendOTP(ctx, phone)
		} else {
			err = f.VerifyOTP(ctx, code)
		}

		for err != nil && f.State() == flow.SignupPending {
			fmt.Fprintln(a.out, domain.UserMessage(err))
			if errors.Is(err, flow.ErrSignupNotResumable) || !a.confirm("Retry creating the account?") {
				return err
			}
			err = f.RetrySignup(ctx)
		}

		switch {
		case f.State() == flow.SignupSignedUp:
			fmt.Fprintln(a.out, "Account created. Please log in.")
			return nil
		case err != nil:
			fmt.Fprintln(a.out, domain.UserMessage(err))
		case code == "":
			fmt.Fprintln(a.out, "OTP sent again.")
		}
	}
}

func (a *app) resetPIN(ctx context.Context) error {
	phone, err := a.askPhone()
	if err != nil {
		return err
	}

	f := flow.NewPinResetFlow(a.identity)
	if err := f.RequestOTP(ctx, phone); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "OTP sent to %s.\n", phone.FullNumber())

	for {
		code, err := a.ask("OTP (blank to resend)")
		if err != nil {
			return err
		}

		if code == "" {
			if err := f.RequestOTP(ctx, phone); err != nil {
				fmt.Fprintln(a.out, domain.UserMessage(err))
				continue
			}
			fmt.Fprintln(a.out, "OTP sent again.")
			continue
		}

		newPIN, err := a.ask("New PIN (4 digits)")
		if err != nil {
			return err
		}

		if err := f.Submit(ctx, code, newPIN); err != nil {
			fmt.Fprintln(a.out, domain.UserMessage(err))
			continue
		}

		fmt.Fprintln(a.out, "PIN reset successfully. Log in with your new PIN.")
		return nil
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.out)
	countryCode := fs.String("country", domain.DefaultCountryCode, "country code")
	mobile := fs.String("mobile", "", "local mobile number")
	role := fs.String("role", "", "expert, farmer or admin")
	if err := fs.Parse(args); err != nil {
		return domain.NewValidationError("flags", err.Error())
	}

	var err error
	if *mobile == "" {
		if *mobile, err = a.ask("Mobile number"); err != nil {
			return err
		}
	}
	if *role == "" {
		if *role, err = a.ask("Role (expert/farmer/admin)"); err != nil {
			return err
		}
	}
	pin, err := a.ask("PIN")
	if err != nil {
		return err
	}

	message, err := flow.NewLoginFlow(a.identity, a.sessions).
		Login(ctx, domain.NewPhoneIdentity(*countryCode, *mobile), pin, domain.Role(*role))
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, message)
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	f := flow.NewLoginFlow(a.identity, a.sessions)
	s, ok, err := f.Current(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}

	fmt.Fprintf(a.out, "%s (%s) since %s\n", s.Mobile, s.Role, s.LoggedInAt.Format("2006-01-02 15:04"))

	if s.Role == domain.RoleExpert {
		verified, err := f.CheckVerifiedExpert(ctx)
		if err != nil {
			return err
		}
		if verified {
			fmt.Fprintln(a.out, "Expert account verified.")
		} else {
			fmt.Fprintln(a.out, "Expert verification pending.")
		}
	}

	return nil
}

func (a *app) confirm(question string) bool {
	answer, err := a.ask(question + " [y/N]")
	if err != nil {
		return false
	}
	return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
}
