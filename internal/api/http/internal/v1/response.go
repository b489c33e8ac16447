package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/plantdoctor/identity/pkg/logger"
)

func errorResponse(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, ErrorStruct{Detail: detail})
}

func otpFailureResponse(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, OTPStruct{Success: false, Message: message})
}

// serviceErrorResponse writes err as a detail body, logging anything the
// mapping does not know.
func serviceErrorResponse(c *gin.Context, op string, err error) {
	status, message, ok := serviceError(err)
	if !ok {
		logger.Error(op+" failed", zap.Error(err))
	}
	errorResponse(c, status, message)
}

func otpServiceErrorResponse(c *gin.Context, op string, err error) {
	status, message, ok := serviceError(err)
	if !ok {
		logger.Error(op+" failed", zap.Error(err))
	}
	otpFailureResponse(c, status, message)
}

// validationErrors converts a binding failure into per-field messages. The
// first message doubles as the detail shown to the user.
func validationErrors(err error) (string, []ValidationError) {
	var verr validator.ValidationErrors
	if !errors.As(err, &verr) || len(verr) == 0 {
		return MsgInvalidRequestBody, nil
	}

	out := make([]ValidationError, len(verr))
	for i, ferr := range verr {
		out[i] = ValidationError{ferr.Field(), msgForTag(ferr.Tag())}
	}

	return out[0].ErrorMessage, out
}

func validationErrorResponse(c *gin.Context, err error) {
	detail, fields := validationErrors(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorStruct{Detail: detail, Errors: fields})
}

func otpValidationErrorResponse(c *gin.Context, err error) {
	detail, _ := validationErrors(err)
	otpFailureResponse(c, http.StatusBadRequest, detail)
}

func msgForTag(tag string) string {
	switch tag {
	case "required":
		return "Please fill all fields"
	case "pin":
		return "PIN must be exactly 4 digits."
	case "otp":
		return "Invalid OTP."
	case "phonenumber", "localnumber", "countrycode":
		return "Please enter a valid mobile number."
	case "min", "max":
		return MsgInvalidDateOfBirth
	}
	return "Invalid value."
}
