package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plantdoctor/identity/internal/domain"
	"github.com/plantdoctor/identity/internal/service"
)

func (h *Handler) initIdentityRoutes(api *gin.RouterGroup) {
	api.POST("/send-otp", h.sendOTP)
	api.POST("/verify-otp", h.verifyOTP)
	api.POST("/signup", h.signup)
	api.POST("/forgot-pin", h.forgotPIN)
	api.POST("/verify-otp-pin-reset", h.resetPIN)
	api.POST("/login", h.login)
	api.GET("/check-verified-expert/:mobile", h.checkVerifiedExpert)
}

type sendOTPInput struct {
	CountryCode string `json:"countryCode" binding:"required,countrycode"`
	Mobile      string `json:"mobile" binding:"required,localnumber"`
}

type dateOfBirthInput struct {
	Year  int `json:"year" binding:"required,min=1900"`
	Month int `json:"month" binding:"required,min=1,max=12"`
	Day   int `json:"day" binding:"required,min=1,max=31"`
}

func (d dateOfBirthInput) toDomain() domain.DateOfBirth {
	return domain.DateOfBirth{Year: d.Year, Month: d.Month, Day: d.Day}
}

type userDataInput struct {
	FirstName   string           `json:"firstName" binding:"required"`
	LastName    string           `json:"lastName" binding:"required"`
	DateOfBirth dateOfBirthInput `json:"dateOfBirth"`
	PIN         string           `json:"pin" binding:"required,pin"`
	Role        string           `json:"role" binding:"required"`
}

// toDomain returns the profile, or false when the date of birth is not a
// real past date.
func (u userDataInput) toDomain() (service.SignupProfile, bool) {
	dob := u.DateOfBirth.toDomain()
	if !dob.IsCalendarDate(time.Now()) {
		return service.SignupProfile{}, false
	}

	return service.SignupProfile{
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		DateOfBirth: dob,
		PIN:         u.PIN,
		Role:        domain.ParseRole(u.Role),
	}, true
}

// verifyOTPInput carries the profile the code is verified for; the issued
// token only admits a signup with the same profile.
type verifyOTPInput struct {
	Mobile   string         `json:"mobile" binding:"required,phonenumber"`
	OTP      string         `json:"otp" binding:"required,otp"`
	UserData *userDataInput `json:"userData" binding:"required"`
}

type signupInput struct {
	userDataInput
	Mobile            string `json:"mobile" binding:"required,phonenumber"`
	VerificationToken string `json:"verificationToken"`
}

type resetPINInput struct {
	Mobile string `json:"mobile" binding:"required,phonenumber"`
	OTP    string `json:"otp" binding:"required,otp"`
	NewPIN string `json:"new_pin" binding:"required,pin"`
}

type loginInput struct {
	Mobile string `json:"mobile" binding:"required,phonenumber"`
	PIN    string `json:"pin" binding:"required,pin"`
	Role   string `json:"role" binding:"required"`
}

type loginResponse struct {
	Message string `json:"message"`
	Mobile  string `json:"mobile"`
	Role    string `json:"role"`
}

type verifiedExpertResponse struct {
	Success bool `json:"success"`
}

// @Summary Send signup OTP
// @Tags Identity
// @Accept  json
// @Produce  json
// @Param input body sendOTPInput true "phone"
// @Success 200 {object} OTPStruct
// @Failure 400,502 {object} OTPStruct
// @Router /send-otp [post]
func (h *Handler) sendOTP(c *gin.Context) {
	var inp sendOTPInput
	if err := c.ShouldBindJSON(&inp); err != nil {
		otpValidationErrorResponse(c, err)
		return
	}

	phone := domain.NewPhoneIdentity(inp.CountryCode, inp.Mobile)
	if err := h.services.Accounts.SendSignupOTP(c.Request.Context(), phone); err != nil {
		otpServiceErrorResponse(c, "send otp", err)
		return
	}

	c.JSON(http.StatusOK, OTPStruct{Success: true, Message: MsgOTPSent})
}

// @Summary Verify signup OTP
// @Tags Identity
// @Accept  json
// @Produce  json
// @Param input body verifyOTPInput true "code"
// @Success 200 {object} OTPStruct
// @Failure 400 {object} OTPStruct
// @Router /verify-otp [post]
func (h *Handler) verifyOTP(c *gin.Context) {
	var inp verifyOTPInput
	if err := c.ShouldBindJSON(&inp); err != nil {
		otpValidationErrorResponse(c, err)
		return
	}

	profile, ok := inp.UserData.toDomain()
	if !ok {
		otpFailureResponse(c, http.StatusBadRequest, MsgInvalidDateOfBirth)
		return
	}

	token, err := h.services.Accounts.VerifySignupOTP(c.Request.Context(), inp.Mobile, inp.OTP, profile)
	if err != nil {
		otpServiceErrorResponse(c, "verify otp", err)
		return
	}

	c.JSON(http.StatusOK, OTPStruct{Success: true, Message: MsgOTPVerified, VerificationToken: token.Token})
}

// @Summary Create account
// @Tags Identity
// @Accept  json
// @Produce  json
// @Param input body signupInput true "profile"
// @Success 201 {object} MessageStruct
// @Failure 400,403 {object} ErrorStruct
// @Router /signup [post]
func (h *Handler) signup(c *gin.Context) {
	var inp signupInput
	if err := c.ShouldBindJSON(&inp); err != nil {
		validationErrorResponse(c, err)
		return
	}

	profile, ok := inp.toDomain()
	if !ok {
		errorResponse(c, http.StatusBadRequest, MsgInvalidDateOfBirth)
		return
	}

	err := h.services.Accounts.Signup(c.Request.Context(), service.SignupInput{
		SignupProfile:     profile,
		Mobile:            inp.Mobile,
		VerificationToken: inp.VerificationToken,
	})
	if err != nil {
		serviceErrorResponse(c, "signup", err)
		return
	}

	c.JSON(http.StatusCreated, MessageStruct{Message: MsgAccountCreated})
}

// @Summary Send PIN reset OTP
// @Tags Identity
// @Accept  json
// @Produce  json
// @Param input body sendOTPInput true "phone"
// @Success 200 {object} MessageStruct
// @Failure 400,404,502 {object} ErrorStruct
// @Router /forgot-pin [post]
func (h *Handler) forgotPIN(c *gin.Context) {
	var inp sendOTPInput
	if err := c.ShouldBindJSON(&inp); err != nil {
		validationErrorResponse(c, err)
		return
	}

	phone := domain.NewPhoneIdentity(inp.CountryCode, inp.Mobile)
	if err := h.services.Accounts.ForgotPIN(c.Request.Context(), phone); err != nil {
		serviceErrorResponse(c, "forgot pin", err)
		return
	}

	c.JSON(http.StatusOK, MessageStruct{Message: MsgOTPSent})
}

// @Summary Reset PIN
// @Tags Identity
// @Accept  json
// @Produce  json
// @Param input body resetPINInput true "code and new PIN"
// @Success 200 {object} MessageStruct
// @Failure 400,404 {object} ErrorStruct
// @Router /verify-otp-pin-reset [post]
func (h *Handler) resetPIN(c *gin.Context) {
	var inp resetPINInput
	if err := c.ShouldBindJSON(&inp); err != nil {
		validationErrorResponse(c, err)
		return
	}

	if err := h.services.Accounts.ResetPIN(c.Request.Context(), inp.Mobile, inp.OTP, inp.NewPIN); err != nil {
		serviceErrorResponse(c, "reset pin", err)
		return
	}

	c.JSON(http.StatusOK, MessageStruct{Message: MsgPINReset})
}

// @Summary Login
// @Tags Identity
// @Accept  json
// @Produce  json
// @Param input body loginInput true "credentials"
// @Success 200 {object} loginResponse
// @Failure 400,401 {object} ErrorStruct
// @Router /login [post]
func (h *Handler) login(c *gin.Context) {
	var inp loginInput
	if err := c.ShouldBindJSON(&inp); err != nil {
		validationErrorResponse(c, err)
		return
	}

	user, err := h.services.Accounts.Login(c.Request.Context(), inp.Mobile, inp.PIN, domain.ParseRole(inp.Role))
	if err != nil {
		serviceErrorResponse(c, "login", err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{Message: MsgLoginSuccessful, Mobile: user.Mobile, Role: string(user.Role)})
}

// @Summary Check verified expert
// @Tags Identity
// @Produce  json
// @Param mobile path string true "full mobile number"
// @Success 200 {object} verifiedExpertResponse
// @Router /check-verified-expert/{mobile} [get]
func (h *Handler) checkVerifiedExpert(c *gin.Context) {
	ok, err := h.services.Accounts.IsVerifiedExpert(c.Request.Context(), c.Param("mobile"))
	if err != nil {
		serviceErrorResponse(c, "check verified expert", err)
		return
	}

	c.JSON(http.StatusOK, verifiedExpertResponse{Success: ok})
}
