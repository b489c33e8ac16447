package v1

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/plantdoctor/identity/pkg/logger"
)

const authorizationHeader = "Authorization"

func (h *Handler) adminIdentityMiddleware(c *gin.Context) {
	token, err := parseAuthHeader(c)
	if err != nil {
		logger.Warn("parse auth header failed", zap.Error(err))
		errorResponse(c, http.StatusUnauthorized, "Unauthorized.")
		return
	}

	if subtle.ConstantTimeCompare([]byte(token), []byte(h.config.Auth.AdminToken)) != 1 {
		errorResponse(c, http.StatusUnauthorized, "Unauthorized.")
		return
	}

	c.Next()
}

func parseAuthHeader(c *gin.Context) (string, error) {
	header := c.GetHeader(authorizationHeader)
	if header == "" {
		return "", errors.New("empty auth header")
	}

	headerParts := strings.Split(header, " ")
	if len(headerParts) != 2 || headerParts[0] != "Bearer" {
		return "", errors.New("invalid auth header")
	}

	if len(headerParts[1]) == 0 {
		return "", errors.New("token is empty")
	}

	return headerParts[1], nil
}
