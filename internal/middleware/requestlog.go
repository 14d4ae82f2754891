package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/salonloop/notifier/pkg/logger"
)

const (
	HeaderRequestID  = "X-Request-ID"
	ContextRequestID = "request_id"
)

// RequestLog assigns each request an id, echoes it back in the response
// and logs the outcome. The status surface is small and read-only, so
// bodies are never captured.
func RequestLog(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if rid == "" {
			rid = uuid.New().String()
		}
		c.Set(ContextRequestID, rid)
		c.Header(HeaderRequestID, rid)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := log.WithFields(map[string]interface{}{
			"request_id": rid,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		})

		switch {
		case status >= 500:
			entry.Error(nil, "request failed")
		case status >= 400:
			entry.Warn("client error")
		default:
			entry.Info("request handled")
		}
	}
}
