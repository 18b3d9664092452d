package middleware

import (
	"VCoin/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// 网关透传的链路头，按顺序取第一个非空值
var traceHeaders = []string{"X-Trace-ID", "X-Request-ID"}

func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var traceID string
		for _, h := range traceHeaders {
			if traceID = c.GetHeader(h); traceID != "" {
				break
			}
		}
		if traceID == "" {
			traceID = uuid.NewString()
		}

		c.Set(logger.TraceIDKey, traceID)
		c.Request = c.Request.WithContext(logger.WithTraceID(c.Request.Context(), traceID))
		c.Header("X-Trace-ID", traceID)
		c.Next()
	}
}
