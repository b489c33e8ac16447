package apiHttp

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDCtx    = "requestId"
)

// requestIDMiddleware keeps the caller's request id, or assigns one, and
// echoes it in the response.
func requestIDMiddleware(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if id == "" {
		id = uuid.New().String()
	}

	c.Set(requestIDCtx, id)
	c.Header(requestIDHeader, id)
	c.Next()
}

func requestIDField(c *gin.Context) []zapcore.Field {
	return []zapcore.Field{zap.String("request_id", c.GetString(requestIDCtx))}
}
