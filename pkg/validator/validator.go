package validator

import (
	"fmt"
	"log"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// OTPLength is the number of digits in every one-time code.
const OTPLength = 6

// CountryCodes is the fixed set of dialling prefixes offered to users.
var CountryCodes = []string{"+977", "+1", "+44", "+91", "+86", "+33"}

var (
	pinPattern         = regexp.MustCompile(`^\d{4}$`)
	otpPattern         = regexp.MustCompile(fmt.Sprintf(`^\d{%d}$`, OTPLength))
	localNumberPattern = regexp.MustCompile(`^\d{7,12}$`)
	fullNumberPattern  = regexp.MustCompile(`^\+\d{8,16}$`)
)

var (
	instance *validator.Validate
	once     sync.Once
)

// Validator returns the shared validator with the custom tags registered.
func Validator() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		register(instance)
	})
	return instance
}

// RegisterGinValidator installs the custom tags into gin's binding engine so
// `binding:"..."` tags on request structs understand them.
func RegisterGinValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		register(v)
	}
}

func register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	tags := map[string]validator.Func{
		"pin":         patternValidator(pinPattern),
		"otp":         patternValidator(otpPattern),
		"localnumber": patternValidator(localNumberPattern),
		"phonenumber": phoneNumberValidator,
		"countrycode": countryCodeValidator,
	}
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("register %s validator failed", tag)
		}
	}
}

func patternValidator(pattern *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return pattern.MatchString(fl.Field().String())
	}
}

// phoneNumberValidator accepts a full number: a known country code followed by
// a local number.
var phoneNumberValidator validator.Func = func(fl validator.FieldLevel) bool {
	return IsFullNumber(fl.Field().String())
}

var countryCodeValidator validator.Func = func(fl validator.FieldLevel) bool {
	return IsCountryCode(fl.Field().String())
}

func IsCountryCode(code string) bool {
	for _, c := range CountryCodes {
		if c == code {
			return true
		}
	}
	return false
}

func IsFullNumber(number string) bool {
	if !fullNumberPattern.MatchString(number) {
		return false
	}
	for _, c := range CountryCodes {
		if strings.HasPrefix(number, c) && localNumberPattern.MatchString(number[len(c):]) {
			return true
		}
	}
	return false
}
