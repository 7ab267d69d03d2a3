package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request with the request_id and, once auth has run,
// the acting user. Server errors log at error level, client errors at warn.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := logrus.Fields{
			"status":  status,
			"method":  c.Request.Method,
			"path":    SanitizePath(c.Request.URL.Path),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		}
		if uid, ok := c.Get(UserIDKey); ok {
			fields["user_id"] = uid
		}
		entry := GetRequestLogger(c).WithFields(fields)
		switch {
		case status >= 500:
			entry.Error("handled request")
		case status >= 400:
			entry.Warn("handled request")
		default:
			entry.Info("handled request")
		}
	}
}
