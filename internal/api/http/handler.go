package apiHttp

import (
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"

	internalV1 "github.com/plantdoctor/identity/internal/api/http/internal/v1"
	"github.com/plantdoctor/identity/internal/config"
	"github.com/plantdoctor/identity/internal/service"
	"github.com/plantdoctor/identity/pkg/limiter"
	"github.com/plantdoctor/identity/pkg/logger"
	"github.com/plantdoctor/identity/pkg/validator"
)

type Handler struct {
	services *service.Services
	config   *config.Config
}

func NewHandlers(services *service.Services, cfg *config.Config) *Handler {
	return &Handler{
		services: services,
		config:   cfg,
	}
}

func (h *Handler) Init(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	validator.RegisterGinValidator()

	router.Use(
		requestIDMiddleware,
		ginzap.GinzapWithConfig(logger.Logger(), &ginzap.Config{
			TimeFormat: time.RFC3339,
			UTC:        true,
			SkipPaths:  []string{"/ping"},
			Context:    requestIDField,
		}),
		limiter.Limit(cfg.Limiter.RPS, cfg.Limiter.Burst, cfg.Limiter.TTL),
	)
	router.Use(ginzap.RecoveryWithZap(logger.Logger(), true))

	router.GET("/ping", func(c *gin.Context) {
		c.String(200, "pong")
	})

	h.initAPI(router)

	return router
}

func (h *Handler) initAPI(router *gin.Engine) {
	internalHandlersV1 := internalV1.NewHandler(h.services, h.config)
	api := router.Group("/api")
	internalHandlersV1.Init(api)
}
