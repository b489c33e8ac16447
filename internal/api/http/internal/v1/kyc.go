package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) initKYCRoutes(api *gin.RouterGroup) {
	if h.config.Auth.AdminToken == "" {
		return
	}

	kyc := api.Group("/kyc-verifications", h.adminIdentityMiddleware)
	kyc.PATCH("/:mobile", h.updateKYCVerification)
}

type kycVerificationInput struct {
	Approved *bool `json:"approved" binding:"required"`
}

// @Summary Approve or revoke expert KYC
// @Tags KYC
// @Accept  json
// @Produce  json
// @Param mobile path string true "full mobile number"
// @Param input body kycVerificationInput true "decision"
// @Success 200 {object} MessageStruct
// @Failure 400,401,404 {object} ErrorStruct
// @Security AdminAuth
// @Router /kyc-verifications/{mobile} [patch]
func (h *Handler) updateKYCVerification(c *gin.Context) {
	var inp kycVerificationInput
	if err := c.ShouldBindJSON(&inp); err != nil {
		validationErrorResponse(c, err)
		return
	}

	if err := h.services.Accounts.ApproveKYC(c.Request.Context(), c.Param("mobile"), *inp.Approved); err != nil {
		serviceErrorResponse(c, "update kyc verification", err)
		return
	}

	c.JSON(http.StatusOK, MessageStruct{Message: MsgKYCUpdated})
}
