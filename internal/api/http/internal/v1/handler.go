package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/plantdoctor/identity/internal/config"
	"github.com/plantdoctor/identity/internal/service"
)

// @title Identity API
// @version 1.0
// @description Phone verification, signup, PIN reset and login

// @BasePath /api/v1

// @securityDefinitions.apikey AdminAuth
// @in header
// @name Authorization

type Handler struct {
	services *service.Services
	config   *config.Config
}

func NewHandler(services *service.Services, config *config.Config) *Handler {
	return &Handler{
		services: services,
		config:   config,
	}
}

func (h *Handler) Init(api *gin.RouterGroup) {
	v1 := api.Group("v1")

	h.initIdentityRoutes(v1)
	h.initKYCRoutes(v1)
}
